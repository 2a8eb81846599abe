package domain

import "math"

const (
	// Mean Earth radius used by the haversine formula, in meters.
	EarthRadiusMeters = 6371000.0
	MetersPerMile     = 1609.34
	FeetPerMeter      = 3.28084
)

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMeters returns the great-circle distance between a and b.
// Input is not validated; out-of-range coordinates give undefined results.
func DistanceMeters(a, b Waypoint) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// PathDistanceMiles sums the great-circle distance over consecutive points.
func PathDistanceMiles(points []Waypoint) float64 {
	if len(points) < 2 {
		return 0
	}

	totalMeters := 0.0
	for i := 1; i < len(points); i++ {
		totalMeters += DistanceMeters(points[i-1], points[i])
	}
	return totalMeters / MetersPerMile
}

// SegmentGain is the climb from a to b; descents count as zero.
func SegmentGain(a, b Waypoint) float64 {
	return math.Max(0, b.ElevationFeet-a.ElevationFeet)
}

// ElevationGain sums only the positive elevation deltas along points.
func ElevationGain(points []Waypoint) float64 {
	if len(points) < 2 {
		return 0
	}

	gain := 0.0
	for i := 1; i < len(points); i++ {
		gain += SegmentGain(points[i-1], points[i])
	}
	return gain
}

// EstimateTravelMinutes truncates distance/speed to whole minutes.
// ModeUnset is estimated at walking speed.
func EstimateTravelMinutes(distanceMiles float64, mode TravelMode) int {
	if distanceMiles == 0 {
		return 0
	}
	return int(distanceMiles / mode.SpeedMph() * 60)
}
