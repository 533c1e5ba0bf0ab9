// Package geo holds the distance math used by nearby-game discovery.
package geo

import "math"

const (
	// EarthRadiusKm is the mean earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0
	// KmToMiles converts kilometres to statute miles.
	KmToMiles = 0.621371
)

// HaversineKm returns the great-circle distance in kilometres between two
// coordinates given in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// HaversineMiles returns the great-circle distance in miles.
func HaversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * KmToMiles
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
