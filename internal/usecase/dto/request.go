package dto

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/talhao-editor/internal/domain"
	"github.com/talhao-editor/internal/editor"
)

// CreateSessionRequest - открыть сессию редактора
type CreateSessionRequest struct {
	FarmID *int64 `json:"farm_id,omitempty" validate:"omitempty,gt=0"`
	Mode   string `json:"mode,omitempty" validate:"omitempty,oneof=edit view draft"`
}

// CommandRequest - событие карты. Type выбирает вариант команды.
type CommandRequest struct {
	Type     string            `json:"type" validate:"required,oneof=shape_created shape_edited attributes_edited shape_removed"`
	HandleID uint64            `json:"handle_id,omitempty"`
	Geometry *geojson.Geometry `json:"geometry,omitempty"`
	Label    string            `json:"label,omitempty" validate:"max=100"`
	AreaHa   *float64          `json:"area_ha,omitempty" validate:"omitempty,gte=0"`
}

// ToCommand переводит запрос в команду диспетчера
func (r *CommandRequest) ToCommand() (editor.Command, error) {
	id := domain.HandleID(r.HandleID)

	switch r.Type {
	case "shape_created":
		if r.Geometry == nil || r.Geometry.Geometry() == nil {
			return nil, fmt.Errorf("%s: geometry is required", r.Type)
		}
		return editor.ShapeCreated{Geometry: r.Geometry.Geometry()}, nil
	case "shape_edited":
		if id.IsZero() {
			return nil, fmt.Errorf("%s: handle_id is required", r.Type)
		}
		if r.Geometry == nil || r.Geometry.Geometry() == nil {
			return nil, fmt.Errorf("%s: geometry is required", r.Type)
		}
		return editor.ShapeEdited{HandleID: id, Geometry: r.Geometry.Geometry()}, nil
	case "attributes_edited":
		if id.IsZero() {
			return nil, fmt.Errorf("%s: handle_id is required", r.Type)
		}
		return editor.AttributesEdited{HandleID: id, Label: r.Label, AreaHa: r.AreaHa}, nil
	case "shape_removed":
		if id.IsZero() {
			return nil, fmt.Errorf("%s: handle_id is required", r.Type)
		}
		return editor.ShapeRemoved{HandleID: id}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", r.Type)
	}
}

// SaveFarmRequest - реквизиты фермы для сохранения черновика
type SaveFarmRequest struct {
	Code  string `json:"cod_fazenda" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=200"`
	Owner string `json:"owner" validate:"required,max=200"`
}

// LoadFarmRequest - открыть сохранённую ферму в сессии
type LoadFarmRequest struct {
	FarmID int64  `validate:"required,gt=0"`
	Mode   string `validate:"omitempty,oneof=edit view"`
}

// Editable - ферма открывается для редактирования
func (r LoadFarmRequest) Editable() bool {
	return r.Mode == "edit"
}

// ListFarmsRequest - фильтр списка ферм
type ListFarmsRequest struct {
	Code  string `query:"code" validate:"max=100"`
	Name  string `query:"name" validate:"max=100"`
	Owner string `query:"owner" validate:"max=100"`
}

// Filter - фильтр для репозитория
func (r ListFarmsRequest) Filter() domain.FarmFilter {
	return domain.FarmFilter{Code: r.Code, Name: r.Name, Owner: r.Owner}
}
