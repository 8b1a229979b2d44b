package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Farm - сохранённая ферма: реквизиты, талханы и суммарная площадь
type Farm struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"cod_fazenda" db:"cod_fazenda"`
	Name      string    `json:"name" db:"name"`
	Owner     string    `json:"owner" db:"owner"`
	AreaHa    float64   `json:"area_ha" db:"area_ha"`
	Features  []Feature `json:"-" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FarmSummary - строка списка ферм без геометрии
type FarmSummary struct {
	ID     int64   `json:"id" db:"id"`
	Code   string  `json:"cod_fazenda" db:"cod_fazenda"`
	Name   string  `json:"name" db:"name"`
	Owner  string  `json:"owner" db:"owner"`
	AreaHa float64 `json:"area_ha" db:"area_ha"`
}

// FarmFilter - фильтр списка ферм (подстрока без учёта регистра)
type FarmFilter struct {
	Code  string `json:"code,omitempty"`
	Name  string `json:"name,omitempty"`
	Owner string `json:"owner,omitempty"`
}

// IsEmpty - фильтр ничего не ограничивает
func (f FarmFilter) IsEmpty() bool {
	return f.Code == "" && f.Name == "" && f.Owner == ""
}

// FarmDraft - данные для сохранения фермы из черновика
type FarmDraft struct {
	Code     string
	Name     string
	Owner    string
	Features []Feature
	AreaHa   float64
}

// EncodeFeatures сериализует талханы в FeatureCollection для хранения.
// Id сессии отбрасываются.
func EncodeFeatures(features []Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.ToGeoJSON(false))
	}
	return json.Marshal(fc)
}

// DecodeFeatures разбирает сохранённую геометрию фермы.
// Старые записи могут содержать одиночный Feature вместо коллекции.
func DecodeFeatures(raw []byte) ([]Feature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode farm geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("decode farm feature collection: %w", err)
		}
		features := make([]Feature, 0, len(fc.Features))
		for _, gf := range fc.Features {
			if gf.Geometry == nil {
				continue
			}
			features = append(features, FeatureFromGeoJSON(gf))
		}
		return features, nil
	case "Feature":
		gf, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("decode farm feature: %w", err)
		}
		if gf.Geometry == nil {
			return []Feature{}, nil
		}
		return []Feature{FeatureFromGeoJSON(gf)}, nil
	default:
		return nil, fmt.Errorf("decode farm geojson: unexpected type %q", head.Type)
	}
}
