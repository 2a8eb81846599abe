package dto

import (
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/services"
)

type WaypointRequest struct {
	Latitude      *float64 `json:"latitude" binding:"required"`
	Longitude     *float64 `json:"longitude" binding:"required"`
	ElevationFeet float64  `json:"elevation_feet"`
}

type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type NameRequest struct {
	Name *string `json:"name" binding:"required"`
}

type DraftStateResponse struct {
	Name                  string            `json:"name"`
	Waypoints             []domain.Waypoint `json:"waypoints"`
	Geometry              []domain.Waypoint `json:"geometry"`
	DistanceMiles         float64           `json:"distance_miles"`
	ElevationFeet         float64           `json:"elevation_feet"`
	EstimatedTimeMinutes  int               `json:"estimated_time_minutes"`
	Mode                  string            `json:"mode"`
	ManualMode            bool              `json:"manual_mode"`
	IsCalculating         bool              `json:"is_calculating"`
	Layer                 string            `json:"layer"`
	SaveCompleted         bool              `json:"save_completed"`
	CanUndo               bool              `json:"can_undo"`
	CanRedo               bool              `json:"can_redo"`
	AwaitingModeSelection bool              `json:"awaiting_mode_selection"`
}

type DraftResponse struct {
	ID    string             `json:"id"`
	State DraftStateResponse `json:"state"`
}

type SaveResponse struct {
	Saved bool               `json:"saved"`
	Route *RouteResponse     `json:"route,omitempty"`
	State DraftStateResponse `json:"state"`
}

func NewDraftStateResponse(s services.DraftState) DraftStateResponse {
	return DraftStateResponse{
		Name:                  s.Name,
		Waypoints:             nonNil(s.Waypoints),
		Geometry:              nonNil(s.Geometry),
		DistanceMiles:         s.DistanceMiles,
		ElevationFeet:         s.ElevationFeet,
		EstimatedTimeMinutes:  s.EstimatedTimeMinutes,
		Mode:                  string(s.Mode),
		ManualMode:            s.ManualMode,
		IsCalculating:         s.IsCalculating,
		Layer:                 string(s.Layer),
		SaveCompleted:         s.SaveCompleted,
		CanUndo:               s.CanUndo,
		CanRedo:               s.CanRedo,
		AwaitingModeSelection: s.AwaitingModeSelection(),
	}
}

func nonNil(points []domain.Waypoint) []domain.Waypoint {
	if points == nil {
		return []domain.Waypoint{}
	}
	return points
}
