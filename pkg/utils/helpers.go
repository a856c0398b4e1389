package utils

import (
	"math"
)

// Heading returns the direction from (lat1, lng1) to (lat2, lng2) in degrees,
// measured counter-clockwise from east: atan2(dLat, dLng).
// This is a planar approximation, fine for short local segments but not a
// geodesic bearing.
func Heading(lat1, lng1, lat2, lng2 float64) float64 {
	dy := lat2 - lat1
	dx := lng2 - lng1
	return math.Atan2(dy, dx) * (180 / math.Pi)
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
