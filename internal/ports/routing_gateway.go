package ports

import "context"

// Directions request sent to a routing service.
// Coordinates are ordered [lon, lat] pairs.
type DirectionsRequest struct {
	Profile     string
	Coordinates [][]float64
	Elevation   bool
}

// Detailed path returned by a routing service.
// Each path point is [lon, lat] or [lon, lat, elevationMeters].
type DirectionsResult struct {
	TotalDistanceMeters float64
	Path                [][]float64
}

// Contract for snapping an ordered list of coordinates to a road/path network.
type RoutingGateway interface {
	// Return the routed path geometry and its total distance.
	Directions(ctx context.Context, req DirectionsRequest) (DirectionsResult, error)
}
