package core

import "math"

// EarthRadiusKm is the mean Earth radius used for all great-circle
// distance calculations (kilometres).
const EarthRadiusKm = 6371.0

// LatLong is a geodetic position in decimal degrees.
type LatLong struct {
	Latitude  float64
	Longitude float64
}

// HaversineKm returns the great-circle distance between a and b in kilometres.
func HaversineKm(a, b LatLong) float64 {
	lat1 := degToRad(a.Latitude)
	lat2 := degToRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := degToRad(b.Longitude) - degToRad(a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h a hair above 1 for antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
