// Package area считает площадь талханов в гектарах.
package area

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/talhao-editor/internal/domain"
)

const squareMetersPerHectare = 10000.0

// ComputeHa возвращает площадь талхана в гектарах.
// Ручная площадь (area override) возвращается как есть, без пересчёта.
// Для вырожденной геометрии возвращается 0.
func ComputeHa(f domain.Feature) float64 {
	if f.Properties.HasAreaOverride() {
		return *f.Properties.AreaOverrideHa
	}
	return GeometryHa(f.Geometry)
}

// GeometryHa - сферическая площадь полигона/мультиполигона в гектарах.
// Вырожденные части мультиполигона не учитываются, остальные суммируются.
func GeometryHa(g orb.Geometry) float64 {
	if mp, ok := g.(orb.MultiPolygon); ok {
		total := 0.0
		for _, poly := range mp {
			total += GeometryHa(poly)
		}
		return total
	}
	if IsDegenerate(g) {
		return 0
	}
	sqm := geo.Area(g)
	if math.IsNaN(sqm) || math.IsInf(sqm, 0) || sqm < 0 {
		return 0
	}
	return sqm / squareMetersPerHectare
}

// ComputeTotalHa - сумма ComputeHa по списку. Это же значение сохраняется
// как суммарная площадь фермы.
func ComputeTotalHa(features []domain.Feature) float64 {
	total := 0.0
	for _, f := range features {
		total += ComputeHa(f)
	}
	return total
}

// IsDegenerate - у геометрии нет ни одного внешнего кольца, способного дать площадь:
// пустые массивы, меньше трёх различных точек, нечисловые координаты, не-полигон.
func IsDegenerate(g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return degeneratePolygon(geom)
	case orb.MultiPolygon:
		for _, poly := range geom {
			if !degeneratePolygon(poly) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func degeneratePolygon(p orb.Polygon) bool {
	if len(p) == 0 {
		return true
	}
	return degenerateRing(p[0])
}

func degenerateRing(r orb.Ring) bool {
	distinct := make(map[orb.Point]struct{}, len(r))
	for _, pt := range r {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
			return true
		}
		distinct[pt] = struct{}{}
	}
	return len(distinct) < 3
}
