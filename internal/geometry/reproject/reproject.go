// Package reproject переводит координаты из фиксированной проекции UTM (WGS84)
// в географические градусы. Решение о необходимости перевода принимается
// по величине координат.
package reproject

import (
	"fmt"
	"math"

	"github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
)

// DefaultZone/DefaultSouth - EPSG:32724 (UTM 24S)
const (
	DefaultZone  = 24
	DefaultSouth = true
)

// PointError - точку не удалось перевести, она оставлена без изменений
type PointError struct {
	Point  orb.Point
	Reason string
}

func (e *PointError) Error() string {
	return fmt.Sprintf("reproject point [%g, %g]: %s", e.Point[0], e.Point[1], e.Reason)
}

// Projection - зона UTM, из которой переводятся метрические координаты
type Projection struct {
	Zone  int
	South bool
}

// Default возвращает проекцию EPSG:32724
func Default() Projection {
	return Projection{Zone: DefaultZone, South: DefaultSouth}
}

// EPSG - код системы координат проекции
func (p Projection) EPSG() int {
	if p.South {
		return 32700 + p.Zone
	}
	return 32600 + p.Zone
}

// IsGeographic - эвристика: точка уже в градусах, если |x| ≤ 180 и |y| ≤ 90
func IsGeographic(pt orb.Point) bool {
	return math.Abs(pt[0]) <= 180 && math.Abs(pt[1]) <= 90
}

// Point переводит одну точку. Географические точки возвращаются как есть.
// При ошибке возвращается исходная точка и *PointError.
func (p Projection) Point(pt orb.Point) (orb.Point, error) {
	if IsGeographic(pt) {
		return pt, nil
	}
	if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
		return pt, &PointError{Point: pt, Reason: "non-finite coordinate"}
	}
	if p.Zone < 1 || p.Zone > 60 {
		return pt, &PointError{Point: pt, Reason: fmt.Sprintf("invalid utm zone %d", p.Zone)}
	}

	// буква зоны не нужна: полушарие задано явно
	lat, lon, err := UTM.ToLatLon(pt[0], pt[1], p.Zone, "", !p.South)
	if err != nil {
		return pt, &PointError{Point: pt, Reason: err.Error()}
	}
	out := orb.Point{lon, lat}
	if math.IsNaN(lon) || math.IsNaN(lat) || !IsGeographic(out) {
		return pt, &PointError{Point: pt, Reason: "coordinate outside projection domain"}
	}
	return out, nil
}

// Geometry переводит все точки геометрии, сохраняя вложенность
// (точка → кольцо → полигон → мультиполигон). Вход не изменяется:
// результат строится на клоне. Ошибочные точки остаются как были
// и возвращаются списком.
func (p Projection) Geometry(g orb.Geometry) (orb.Geometry, []*PointError) {
	if g == nil {
		return nil, nil
	}
	var errs []*PointError
	out := p.reprojectLeaf(orb.Clone(g), &errs)
	return out, errs
}

func (p Projection) walk(g orb.Geometry, errs *[]*PointError) {
	switch geom := g.(type) {
	case orb.MultiPolygon:
		for _, poly := range geom {
			p.walk(poly, errs)
		}
	case orb.Polygon:
		for _, ring := range geom {
			p.points(ring, errs)
		}
	case orb.Ring:
		p.points(geom, errs)
	case orb.MultiLineString:
		for _, ls := range geom {
			p.points(ls, errs)
		}
	case orb.LineString:
		p.points(geom, errs)
	case orb.MultiPoint:
		p.points(geom, errs)
	case orb.Collection:
		for i := range geom {
			geom[i] = p.reprojectLeaf(geom[i], errs)
		}
	}
}

// reprojectLeaf нужен для одиночного Point: orb.Point - значение, не срез
func (p Projection) reprojectLeaf(g orb.Geometry, errs *[]*PointError) orb.Geometry {
	if pt, ok := g.(orb.Point); ok {
		converted, err := p.Point(pt)
		if err != nil {
			*errs = append(*errs, err.(*PointError))
		}
		return converted
	}
	p.walk(g, errs)
	return g
}

func (p Projection) points(pts []orb.Point, errs *[]*PointError) {
	for i, pt := range pts {
		converted, err := p.Point(pt)
		if err != nil {
			*errs = append(*errs, err.(*PointError))
			continue
		}
		pts[i] = converted
	}
}

// Geometry переводит геометрию в проекции по умолчанию
func Geometry(g orb.Geometry) (orb.Geometry, []*PointError) {
	return Default().Geometry(g)
}
