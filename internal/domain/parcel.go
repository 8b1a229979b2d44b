package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Ключи свойств талхана в GeoJSON (совместимы с уже сохранёнными фермами)
const (
	PropLabel          = "talhao"
	PropAreaOverrideHa = "area_manual"
	PropHandleID       = "handle_id"
)

// HandleID - непрозрачный ключ корреляции между Feature и оверлеем на карте.
// Выдаётся только хранилищем записей при вставке, ноль означает "не назначен".
type HandleID uint64

func (id HandleID) String() string {
	return "h" + strconv.FormatUint(uint64(id), 10)
}

// IsZero - id ещё не назначен
func (id HandleID) IsZero() bool {
	return id == 0
}

// Properties - атрибуты талхана
type Properties struct {
	Label          string                 `json:"talhao"`
	AreaOverrideHa *float64               `json:"area_manual,omitempty"`
	HandleID       HandleID               `json:"handle_id,omitempty"`
	Extra          map[string]interface{} `json:"-"` // исходные атрибуты импортированного файла
}

// HasAreaOverride - задана ли ручная площадь (конечное число)
func (p Properties) HasAreaOverride() bool {
	if p.AreaOverrideHa == nil {
		return false
	}
	v := *p.AreaOverrideHa
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone возвращает независимую копию свойств
func (p Properties) Clone() Properties {
	out := p
	if p.AreaOverrideHa != nil {
		v := *p.AreaOverrideHa
		out.AreaOverrideHa = &v
	}
	if p.Extra != nil {
		out.Extra = make(map[string]interface{}, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Feature - геометрия одного талхана и его атрибуты.
// Координаты всегда в географической системе WGS84 (градусы).
type Feature struct {
	Geometry   orb.Geometry
	Properties Properties
}

// Clone возвращает глубокую копию: геометрия и свойства не разделяются с оригиналом
func (f Feature) Clone() Feature {
	out := Feature{Properties: f.Properties.Clone()}
	if f.Geometry != nil {
		out.Geometry = orb.Clone(f.Geometry)
	}
	return out
}

// FeatureFromGeoJSON извлекает известные свойства из GeoJSON feature,
// остальные атрибуты сохраняются в Extra
func FeatureFromGeoJSON(gf *geojson.Feature) Feature {
	f := Feature{Geometry: gf.Geometry}
	if len(gf.Properties) == 0 {
		return f
	}

	f.Properties.Extra = make(map[string]interface{}, len(gf.Properties))
	for k, v := range gf.Properties {
		switch k {
		case PropLabel:
			f.Properties.Label = PropertyString(v)
		case PropAreaOverrideHa:
			if area, ok := PropertyFloat(v); ok {
				f.Properties.AreaOverrideHa = &area
			}
		case PropHandleID:
			// id сессии никогда не переносится между сессиями
		default:
			f.Properties.Extra[k] = v
		}
	}
	if len(f.Properties.Extra) == 0 {
		f.Properties.Extra = nil
	}
	return f
}

// ToGeoJSON сериализует feature. withHandle=false используется при сохранении:
// id сессии не должен попадать в постоянное хранилище.
func (f Feature) ToGeoJSON(withHandle bool) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	for k, v := range f.Properties.Extra {
		gf.Properties[k] = v
	}
	gf.Properties[PropLabel] = f.Properties.Label
	if f.Properties.HasAreaOverride() {
		gf.Properties[PropAreaOverrideHa] = *f.Properties.AreaOverrideHa
	}
	if withHandle && !f.Properties.HandleID.IsZero() {
		gf.Properties[PropHandleID] = uint64(f.Properties.HandleID)
	}
	return gf
}

// PropertyString приводит значение атрибута к строке.
// Числа из DBF/JSON форматируются без хвостовых нулей.
func PropertyString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// PropertyFloat приводит значение атрибута к числу
func PropertyFloat(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(val), ",", "."), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
