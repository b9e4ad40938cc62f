package services

import "math"

const earthRadiusMeters = 6371000

// HaversineMeters computes the great-circle distance in meters between two
// coordinate pairs.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether the supplied coordinates are within
// radiusMeters of the expected coordinates.
func WithinRadius(suppliedLat, suppliedLng, expectedLat, expectedLng, radiusMeters float64) bool {
	return HaversineMeters(suppliedLat, suppliedLng, expectedLat, expectedLng) <= radiusMeters
}
