package importer

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FileKind - тип импортируемого файла
type FileKind string

const (
	KindShapefile FileKind = "shp"     // одиночный .shp без атрибутов
	KindArchive   FileKind = "archive" // zip с одним или несколькими shapefile + dbf
	KindGeoJSON   FileKind = "geojson"
)

// Parsed - результат разбора файла. Закрытый набор вариантов:
// CollectionList, SingleCollection, SingleFeature, GeometryList.
type Parsed interface {
	shape() string
}

// CollectionList - по коллекции на каждый shapefile внутри архива
type CollectionList struct {
	Collections []*geojson.FeatureCollection
}

// SingleCollection - одна FeatureCollection
type SingleCollection struct {
	Collection *geojson.FeatureCollection
}

// SingleFeature - один Feature без обёртки коллекции
type SingleFeature struct {
	Feature *geojson.Feature
}

// GeometryList - геометрии без атрибутов (голый .shp)
type GeometryList struct {
	Geometries []orb.Geometry
}

func (CollectionList) shape() string   { return "collection_list" }
func (SingleCollection) shape() string { return "collection" }
func (SingleFeature) shape() string    { return "feature" }
func (GeometryList) shape() string     { return "geometry_list" }

// MalformedImportError - результат разбора не подходит ни под один вариант
type MalformedImportError struct {
	TypeName string
	Cause    error
}

func (e *MalformedImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed import payload (%s): %v", e.TypeName, e.Cause)
	}
	return fmt.Sprintf("malformed import payload (%s)", e.TypeName)
}

func (e *MalformedImportError) Unwrap() error {
	return e.Cause
}

// ShapeName - имя варианта для логов и метрик
func ShapeName(p Parsed) string {
	if p == nil {
		return "nil"
	}
	return p.shape()
}

// flatten сводит любой вариант к плоскому упорядоченному списку.
// Элементы без геометрии сохраняются: их пропускает нормализатор.
func flatten(parsed Parsed) ([]*geojson.Feature, error) {
	switch p := parsed.(type) {
	case CollectionList:
		if p.Collections == nil {
			return nil, &MalformedImportError{TypeName: fmt.Sprintf("%T", p)}
		}
		var out []*geojson.Feature
		for i, fc := range p.Collections {
			if fc == nil || fc.Features == nil {
				return nil, &MalformedImportError{
					TypeName: fmt.Sprintf("%T", p),
					Cause:    fmt.Errorf("sub-file %d has no features", i),
				}
			}
			out = append(out, fc.Features...)
		}
		return out, nil
	case SingleCollection:
		if p.Collection == nil || p.Collection.Features == nil {
			return nil, &MalformedImportError{TypeName: fmt.Sprintf("%T", p)}
		}
		return p.Collection.Features, nil
	case SingleFeature:
		if p.Feature == nil {
			return nil, &MalformedImportError{TypeName: fmt.Sprintf("%T", p)}
		}
		return []*geojson.Feature{p.Feature}, nil
	case GeometryList:
		if p.Geometries == nil {
			return nil, &MalformedImportError{TypeName: fmt.Sprintf("%T", p)}
		}
		out := make([]*geojson.Feature, len(p.Geometries))
		for i, g := range p.Geometries {
			// NewFeature даёт пустую карту свойств
			out[i] = geojson.NewFeature(g)
		}
		return out, nil
	default:
		return nil, &MalformedImportError{TypeName: fmt.Sprintf("%T", parsed)}
	}
}
