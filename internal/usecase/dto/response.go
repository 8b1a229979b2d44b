package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/editor"
)

// SessionResponse - состояние сессии редактора
type SessionResponse struct {
	ID        uuid.UUID   `json:"id"`
	Mode      editor.Mode `json:"mode"`
	FarmID    *int64      `json:"farm_id,omitempty"`
	Parcels   int         `json:"parcels"`
	CreatedAt time.Time   `json:"created_at"`
}

// ImportReport - итог импорта файла
type ImportReport struct {
	ImportID    uuid.UUID         `json:"import_id"`
	Kind        string            `json:"kind"`
	Shape       string            `json:"shape"`
	Imported    int               `json:"imported"`
	Skipped     int               `json:"skipped"`
	PointErrors int               `json:"point_errors"`
	Degenerate  int               `json:"degenerate"`
	HandleIDs   []domain.HandleID `json:"handle_ids"`
	Suspect     []domain.HandleID `json:"suspect,omitempty"`
	TotalHa     float64           `json:"total_ha"`
	BBox        []float64         `json:"bbox,omitempty"`
	Archived    string            `json:"archived,omitempty"`
}

// SceneResponse - оверлеи сессии для карты
type SceneResponse struct {
	Mode     editor.Mode                `json:"mode"`
	Overlays *geojson.FeatureCollection `json:"overlays"`
	BBox     []float64                  `json:"bbox,omitempty"`
	Suspect  []domain.HandleID          `json:"suspect,omitempty"`
}

// SaveFarmResponse - результат сохранения
type SaveFarmResponse struct {
	FarmID  int64   `json:"farm_id"`
	Updated bool    `json:"updated"`
	Parcels int     `json:"parcels"`
	AreaHa  float64 `json:"area_ha"`
}

// FarmResponse - ферма с талханами
type FarmResponse struct {
	domain.Farm
	Parcels *geojson.FeatureCollection `json:"parcels"`
}

// ParcelCollection - талханы фермы без id сессии
func ParcelCollection(features []domain.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.ToGeoJSON(false))
	}
	return fc
}
