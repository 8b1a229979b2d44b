package utils

import "github.com/paulmach/orb"

// BBox переводит границы в [minLon, minLat, maxLon, maxLat] для fitBounds карты
func BBox(b orb.Bound) []float64 {
	return []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}
