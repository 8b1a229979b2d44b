package editor

import (
	"github.com/paulmach/orb"

	"github.com/talhao-editor/internal/domain"
)

// Command - событие карты, переведённое в команду для диспетчера.
// Закрытый набор: ShapeCreated, ShapeEdited, AttributesEdited, ShapeRemoved.
type Command interface {
	Name() string
}

// ShapeCreated - нарисован новый полигон
type ShapeCreated struct {
	Geometry orb.Geometry
}

// ShapeEdited - изменены вершины существующего полигона
type ShapeEdited struct {
	HandleID domain.HandleID
	Geometry orb.Geometry
}

// AttributesEdited - отправлена форма имени/площади
type AttributesEdited struct {
	HandleID domain.HandleID
	Label    string
	AreaHa   *float64 // nil - ручная площадь не задана
}

// ShapeRemoved - полигон удалён на карте
type ShapeRemoved struct {
	HandleID domain.HandleID
}

func (ShapeCreated) Name() string     { return "shape_created" }
func (ShapeEdited) Name() string      { return "shape_edited" }
func (AttributesEdited) Name() string { return "attributes_edited" }
func (ShapeRemoved) Name() string     { return "shape_removed" }

// CommandResult - результат обработки команды
type CommandResult struct {
	Command  string          `json:"command"`
	HandleID domain.HandleID `json:"handle_id"`
	Found    bool            `json:"found"`
	Label    string          `json:"label,omitempty"`
	AreaHa   float64         `json:"area_ha"`
}
