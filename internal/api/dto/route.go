package dto

import (
	"pathbuilder-service/internal/domain"
	"time"
)

type RouteResponse struct {
	ID                   int64             `json:"id"`
	Name                 string            `json:"name"`
	DistanceMiles        float64           `json:"distance_miles"`
	ElevationFeet        float64           `json:"elevation_feet"`
	ElevationRange       string            `json:"elevation_range"`
	Difficulty           string            `json:"difficulty"`
	Mode                 string            `json:"mode"`
	EstimatedTimeMinutes int               `json:"estimated_time_minutes"`
	Waypoints            []domain.Waypoint `json:"waypoints"`
	Geometry             []domain.Waypoint `json:"geometry"`
	CreatedAt            time.Time         `json:"created_at"`
}

type ListRouteResponse struct {
	Routes []RouteResponse `json:"routes"`
}

func NewRouteResponse(r domain.RouteRecord) RouteResponse {
	return RouteResponse{
		ID:                   r.ID,
		Name:                 r.Name,
		DistanceMiles:        r.DistanceMiles,
		ElevationFeet:        r.ElevationFeet,
		ElevationRange:       string(domain.ElevationRangeFor(r.ElevationFeet)),
		Difficulty:           string(r.Difficulty),
		Mode:                 string(r.Mode),
		EstimatedTimeMinutes: r.EstimatedTimeMinutes,
		Waypoints:            nonNil(r.Waypoints),
		Geometry:             nonNil(r.Geometry),
		CreatedAt:            r.CreatedAt,
	}
}
