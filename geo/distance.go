// ABOUTME: Great-circle distance between GPS samples
// ABOUTME: Haversine formula in miles, no smoothing or outlier rejection
package geo

import (
	"math"

	"github.com/harperreed/workly/models"
)

// EarthRadiusMiles is the mean Earth radius.
const EarthRadiusMiles = 3958.8

// Haversine returns the great-circle distance in miles between two points.
func Haversine(a, b models.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h))
}

// PathDistance sums the distance between consecutive points.
func PathDistance(points []models.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
