// Package geo holds the great-circle math used by proximity queries
// and the vehicle feed. Pure functions, no state.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the Haversine formula
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between
// two WGS84 points, computed with the Haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BearingDegrees returns the initial bearing from the first point to
// the second, normalized to [0, 360).
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	la1 := toRad(lat1)
	la2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(la2)
	x := math.Cos(la1)*math.Sin(la2) - math.Sin(la1)*math.Cos(la2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
