package services

import (
	"context"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/platform/obs"
	"pathbuilder-service/internal/ports"
	"slices"
	"time"

	"go.uber.org/zap"
)

// NewRouteRecord maps a finished draft to an unsaved record (ID 0).
func NewRouteRecord(draft DraftState, difficulty domain.Difficulty) domain.RouteRecord {
	return domain.RouteRecord{
		Name:                 draft.Name,
		DistanceMiles:        draft.DistanceMiles,
		ElevationFeet:        draft.ElevationFeet,
		Difficulty:           difficulty,
		Mode:                 draft.Mode,
		EstimatedTimeMinutes: draft.EstimatedTimeMinutes,
		Waypoints:            slices.Clone(draft.Waypoints),
		Geometry:             slices.Clone(draft.Geometry),
	}
}

// RouteSaver hands finished routes to the route store and tells interested
// parties about them.
type RouteSaver struct {
	store     ports.RouteStore
	library   *RouteLibrary
	publisher ports.RouteEventPublisher
	logger    *zap.Logger
}

// NewRouteSaver wires a saver. library and publisher are optional.
func NewRouteSaver(
	store ports.RouteStore,
	library *RouteLibrary,
	publisher ports.RouteEventPublisher,
	logger *zap.Logger,
) *RouteSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteSaver{store: store, library: library, publisher: publisher, logger: logger}
}

func (s *RouteSaver) Save(ctx context.Context, route domain.RouteRecord) (_ domain.RouteRecord, err error) {
	defer obs.Time(ctx, "routes.Save")(&err)

	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}

	id, err := s.store.InsertRoute(ctx, route)
	if err != nil {
		return domain.RouteRecord{}, fmt.Errorf("save route: %w", err)
	}
	route.ID = id

	if s.library != nil {
		s.library.Changed(ctx)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRouteSaved(ctx, route); err != nil {
			s.logger.Warn("publish route saved failed",
				zap.Int64("route_id", id),
				zap.Error(err),
			)
		}
	}

	return route, nil
}
