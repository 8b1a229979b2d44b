package editor

import (
	"fmt"
	"html"
	"strings"
)

// ShortLabel убирает префикс "Talhão"/"T-" для подписи на карте.
// Пустой результат отображается как "?".
func ShortLabel(label string) string {
	s := strings.TrimSpace(label)
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "talhão"):
		s = s[len("talhão"):]
	case strings.HasPrefix(lower, "talhao"):
		s = s[len("talhao"):]
	case strings.HasPrefix(lower, "t-"):
		s = s[len("t-"):]
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "?"
	}
	return s
}

// LabelHTML - подпись оверлея: имя и площадь с двумя знаками
func LabelHTML(label string, areaHa float64) string {
	return fmt.Sprintf(
		`<div style="line-height:1;text-align:center;"><span style="font-size:14px;display:block;">%s</span><span style="font-size:10px;opacity:0.9;">%.2f ha</span></div>`,
		html.EscapeString(ShortLabel(label)), areaHa,
	)
}

// InfoPopupHTML - попап талхана сохранённой фермы
func InfoPopupHTML(label string, areaHa float64) string {
	return fmt.Sprintf("<strong>%s</strong><br>Área: %.2f ha", html.EscapeString(ShortLabel(label)), areaHa)
}
