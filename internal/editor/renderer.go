package editor

import (
	"github.com/paulmach/orb"

	"github.com/talhao-editor/internal/domain"
)

// Mode - режим отрисовки набора
type Mode string

const (
	ModeDraft    Mode = "draft"     // редактируемый черновик
	ModeReadOnly Mode = "read_only" // сохранённая ферма, только просмотр
)

// Valid - известный режим
func (m Mode) Valid() bool {
	return m == ModeDraft || m == ModeReadOnly
}

// Style - стиль полигона на карте
type Style struct {
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
}

var (
	DraftStyle    = Style{Color: "#ffff00", Weight: 3, FillOpacity: 0.2}
	ReadOnlyStyle = Style{Color: "#00ffcc", Weight: 2, FillOpacity: 0.2}
)

// StyleFor возвращает стиль режима
func StyleFor(m Mode) Style {
	if m == ModeReadOnly {
		return ReadOnlyStyle
	}
	return DraftStyle
}

// EditForm - встроенная форма редактирования имени и площади талхана
type EditForm struct {
	HandleID domain.HandleID `json:"handle_id"`
	Label    string          `json:"label"`
	AreaHa   float64         `json:"area_ha"`
}

// Renderer - слой отрисовки карты. Реализация владеет оверлеями;
// id записи передаётся ей только для корреляции событий.
type Renderer interface {
	// CreateOverlay создаёт стилизованный полигон для записи
	CreateOverlay(id domain.HandleID, g orb.Geometry, style Style) (RenderHandle, error)

	// SetGeometry обновляет контур оверлея после правки вершин
	SetGeometry(h RenderHandle, g orb.Geometry) error

	// SetLabel задаёт постоянно видимую подпись
	SetLabel(h RenderHandle, html string) error

	// AttachEditForm прикрепляет форму редактирования (только черновик)
	AttachEditForm(h RenderHandle, form EditForm) error

	// AttachInfoPopup прикрепляет информационный попап (только просмотр)
	AttachInfoPopup(h RenderHandle, html string) error

	// RemoveOverlay убирает оверлей с карты
	RemoveOverlay(h RenderHandle) error

	// Bounds - границы оверлея; false если границы не определены
	Bounds(h RenderHandle) (orb.Bound, bool)
}
