package geo

import "math"

const (
	// earthRadiusM is the mean Earth radius in meters.
	earthRadiusM = 6371000.0

	// defaultAvgSpeedKmh is assumed when no usable speed is supplied.
	defaultAvgSpeedKmh = 30.0
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies within WGS84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between two points in meters
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// WithinRadius reports whether b lies within radiusM meters of a.
func WithinRadius(a, b Point, radiusM float64) bool {
	return Distance(a, b) <= radiusM
}

// ETAMinutes estimates travel time in whole minutes for the given distance
// at the given average speed, rounded up and floored at 1. Non-positive
// speeds fall back to a default urban average.
func ETAMinutes(distanceM, avgSpeedKmh float64) int {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = defaultAvgSpeedKmh
	}
	if distanceM <= 0 {
		return 1
	}

	minutes := (distanceM / 1000.0) / avgSpeedKmh * 60.0
	eta := int(math.Ceil(minutes))
	if eta < 1 {
		eta = 1
	}
	return eta
}
