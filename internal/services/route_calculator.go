package services

import (
	"context"
	"errors"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"slices"
	"time"

	"go.uber.org/zap"
)

// Calculation is the derived part of a draft: the measured geometry and the
// scalars computed from it.
type Calculation struct {
	Geometry             []domain.Waypoint
	DistanceMiles        float64
	ElevationFeet        float64
	EstimatedTimeMinutes int
}

type CalculationRequest struct {
	Waypoints []domain.Waypoint
	Mode      domain.TravelMode
	// Previous is the draft's calculation before the newest waypoint was
	// appended. It seeds the incremental fallback.
	Previous Calculation
}

// ManualCalculation measures the straight-line path through waypoints.
func ManualCalculation(waypoints []domain.Waypoint, mode domain.TravelMode) Calculation {
	dist := domain.PathDistanceMiles(waypoints)
	return Calculation{
		Geometry:             slices.Clone(waypoints),
		DistanceMiles:        dist,
		ElevationFeet:        domain.ElevationGain(waypoints),
		EstimatedTimeMinutes: domain.EstimateTravelMinutes(dist, mode),
	}
}

// RouteCalculator turns a waypoint list into a Calculation, preferring the
// routing service and degrading to local geodesy when it is unavailable.
type RouteCalculator struct {
	gateway ports.RoutingGateway
	timeout time.Duration
	logger  *zap.Logger
}

// NewRouteCalculator builds a calculator. A nil gateway means routing is not
// configured and every calculation is manual. timeout <= 0 disables the
// per-call deadline.
func NewRouteCalculator(gateway ports.RoutingGateway, timeout time.Duration, logger *zap.Logger) *RouteCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteCalculator{gateway: gateway, timeout: timeout, logger: logger}
}

func (c *RouteCalculator) Remote() bool { return c != nil && c.gateway != nil }

// Calculate never fails: every routing failure resolves to a fallback result.
func (c *RouteCalculator) Calculate(ctx context.Context, req CalculationRequest) Calculation {
	if !c.Remote() {
		return ManualCalculation(req.Waypoints, req.Mode)
	}

	res, err := c.fetch(ctx, req)
	if err != nil {
		c.logger.Warn("routing failed, using fallback",
			zap.Int("waypoints", len(req.Waypoints)),
			zap.String("profile", req.Mode.Profile()),
			zap.Error(err),
		)
		return IncrementalFallback(req)
	}
	return res
}

func (c *RouteCalculator) fetch(ctx context.Context, req CalculationRequest) (res Calculation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("routing gateway panic: %v", r)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	coords := make([][]float64, 0, len(req.Waypoints))
	for _, w := range req.Waypoints {
		coords = append(coords, w.CoordsToList())
	}

	out, err := c.gateway.Directions(ctx, ports.DirectionsRequest{
		Profile:     req.Mode.Profile(),
		Coordinates: coords,
		Elevation:   true,
	})
	if err != nil {
		return Calculation{}, fmt.Errorf("calculate route: %w", err)
	}
	if len(out.Path) == 0 {
		return Calculation{}, errors.New("calculate route: empty path")
	}

	geometry := make([]domain.Waypoint, 0, len(out.Path))
	for i, p := range out.Path {
		if len(p) < 2 {
			return Calculation{}, fmt.Errorf("calculate route: path point %d has %d values", i, len(p))
		}
		w := domain.Waypoint{Longitude: p[0], Latitude: p[1]}
		if len(p) > 2 {
			w.ElevationFeet = p[2] * domain.FeetPerMeter
		}
		geometry = append(geometry, w)
	}

	// The service's reported total is authoritative over summing the path.
	dist := out.TotalDistanceMeters / domain.MetersPerMile
	return Calculation{
		Geometry:             geometry,
		DistanceMiles:        dist,
		ElevationFeet:        domain.ElevationGain(geometry),
		EstimatedTimeMinutes: domain.EstimateTravelMinutes(dist, req.Mode),
	}, nil
}

// IncrementalFallback extends the previous geometry by a straight segment to
// the newest waypoint. Without previous geometry it measures the whole list.
func IncrementalFallback(req CalculationRequest) Calculation {
	n := len(req.Waypoints)
	if n < 2 || len(req.Previous.Geometry) == 0 {
		return ManualCalculation(req.Waypoints, req.Mode)
	}

	prev, last := req.Waypoints[n-2], req.Waypoints[n-1]
	dist := req.Previous.DistanceMiles + domain.DistanceMeters(prev, last)/domain.MetersPerMile

	geometry := make([]domain.Waypoint, 0, len(req.Previous.Geometry)+1)
	geometry = append(geometry, req.Previous.Geometry...)
	geometry = append(geometry, last)

	return Calculation{
		Geometry:             geometry,
		DistanceMiles:        dist,
		ElevationFeet:        req.Previous.ElevationFeet + domain.SegmentGain(prev, last),
		EstimatedTimeMinutes: domain.EstimateTravelMinutes(dist, req.Mode),
	}
}
