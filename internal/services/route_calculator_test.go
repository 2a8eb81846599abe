package services

import (
	"context"
	"errors"
	"pathbuilder-service/internal/adapters/routing"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualCalculation_OneDegreeAtEquator(t *testing.T) {
	points := []domain.Waypoint{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 1}}

	res := ManualCalculation(points, domain.ModeWalk)

	assert.InDelta(t, 69.09, res.DistanceMiles, 0.1)
	assert.Zero(t, res.ElevationFeet)
	assert.InDelta(t, 1382, res.EstimatedTimeMinutes, 3)
	assert.Equal(t, points, res.Geometry)
}

func TestRouteCalculator_NoGatewayIsManual(t *testing.T) {
	calc := NewRouteCalculator(nil, 0, nil)
	points := []domain.Waypoint{{Latitude: 40, Longitude: -75}, {Latitude: 40.1, Longitude: -75}}

	assert.False(t, calc.Remote())
	assert.Equal(t, ManualCalculation(points, domain.ModeDrive),
		calc.Calculate(context.Background(), CalculationRequest{Waypoints: points, Mode: domain.ModeDrive}))
}

func TestRouteCalculator_UsesRoutedGeometry(t *testing.T) {
	gw := routing.NewMockRoutingGateway(func(_ context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
		return ports.DirectionsResult{
			TotalDistanceMeters: 3218.68,
			Path: [][]float64{
				{-75.0, 40.0, 10},
				{-75.005, 40.005},
				{-75.01, 40.01, 30},
			},
		}, nil
	})
	calc := NewRouteCalculator(gw, time.Second, nil)

	res := calc.Calculate(context.Background(), CalculationRequest{
		Waypoints: []domain.Waypoint{{Latitude: 40, Longitude: -75}, {Latitude: 40.01, Longitude: -75.01}},
		Mode:      domain.ModeDrive,
	})

	require.Len(t, res.Geometry, 3)
	assert.InDelta(t, 2.0, res.DistanceMiles, 1e-9)
	assert.InDelta(t, 4, res.EstimatedTimeMinutes, 1)
	assert.InDelta(t, 10*domain.FeetPerMeter, res.Geometry[0].ElevationFeet, 1e-9)
	assert.Zero(t, res.Geometry[1].ElevationFeet)
	// gain counts only the climb from the missing-elevation point
	assert.InDelta(t, 30*domain.FeetPerMeter, res.ElevationFeet, 1e-9)

	reqs := gw.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "driving-car", reqs[0].Profile)
	assert.True(t, reqs[0].Elevation)
	assert.Equal(t, [][]float64{{-75, 40}, {-75.01, 40.01}}, reqs[0].Coordinates)
}

func TestRouteCalculator_FailureExtendsPreviousGeometry(t *testing.T) {
	calc := NewRouteCalculator(routing.NewFailingGateway(nil), 0, nil)

	a := domain.Waypoint{Latitude: 40, Longitude: -75, ElevationFeet: 100}
	b := domain.Waypoint{Latitude: 40.01, Longitude: -75, ElevationFeet: 150}
	c := domain.Waypoint{Latitude: 40.02, Longitude: -75, ElevationFeet: 120}
	previous := Calculation{
		Geometry:      []domain.Waypoint{a, {Latitude: 40.005, Longitude: -75.001}, b},
		DistanceMiles: 0.9,
		ElevationFeet: 75,
	}

	res := calc.Calculate(context.Background(), CalculationRequest{
		Waypoints: []domain.Waypoint{a, b, c},
		Mode:      domain.ModeWalk,
		Previous:  previous,
	})

	require.Len(t, res.Geometry, 4)
	assert.Equal(t, c, res.Geometry[3])
	assert.InDelta(t, 0.9+domain.DistanceMeters(b, c)/domain.MetersPerMile, res.DistanceMiles, 1e-9)
	assert.Equal(t, 75.0, res.ElevationFeet, "descent adds nothing")
	assert.Equal(t, domain.EstimateTravelMinutes(res.DistanceMiles, domain.ModeWalk), res.EstimatedTimeMinutes)
}

func TestRouteCalculator_FailureWithoutGeometryIsManual(t *testing.T) {
	calc := NewRouteCalculator(routing.NewFailingGateway(nil), 0, nil)
	points := []domain.Waypoint{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 0.5}}

	res := calc.Calculate(context.Background(), CalculationRequest{Waypoints: points, Mode: domain.ModeWalk})
	assert.Equal(t, ManualCalculation(points, domain.ModeWalk), res)
}

func TestRouteCalculator_RecoversFromPanic(t *testing.T) {
	gw := routing.NewMockRoutingGateway(func(context.Context, ports.DirectionsRequest) (ports.DirectionsResult, error) {
		panic("boom")
	})
	calc := NewRouteCalculator(gw, 0, nil)
	points := []domain.Waypoint{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 0}}

	var res Calculation
	require.NotPanics(t, func() {
		res = calc.Calculate(context.Background(), CalculationRequest{Waypoints: points, Mode: domain.ModeWalk})
	})
	assert.Len(t, res.Geometry, 2)
}

func TestRouteCalculator_EmptyPathFallsBack(t *testing.T) {
	gw := routing.NewMockRoutingGateway(func(context.Context, ports.DirectionsRequest) (ports.DirectionsResult, error) {
		return ports.DirectionsResult{TotalDistanceMeters: 5}, nil
	})
	calc := NewRouteCalculator(gw, 0, nil)
	points := []domain.Waypoint{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 0}}

	res := calc.Calculate(context.Background(), CalculationRequest{Waypoints: points, Mode: domain.ModeWalk})
	assert.Equal(t, ManualCalculation(points, domain.ModeWalk), res)
}

func TestRouteCalculator_TimeoutFallsBack(t *testing.T) {
	gw := routing.NewMockRoutingGateway(func(ctx context.Context, _ ports.DirectionsRequest) (ports.DirectionsResult, error) {
		<-ctx.Done()
		return ports.DirectionsResult{}, ctx.Err()
	})
	calc := NewRouteCalculator(gw, 20*time.Millisecond, nil)
	points := []domain.Waypoint{{Latitude: 0, Longitude: 0}, {Latitude: 1, Longitude: 0}}

	start := time.Now()
	res := calc.Calculate(context.Background(), CalculationRequest{Waypoints: points, Mode: domain.ModeWalk})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, ManualCalculation(points, domain.ModeWalk), res)
}

func TestRouteCalculator_ErrorsNeverEscape(t *testing.T) {
	calc := NewRouteCalculator(routing.NewFailingGateway(errors.New("HTTP 500")), 0, nil)
	res := calc.Calculate(context.Background(), CalculationRequest{Mode: domain.ModeWalk})
	assert.Zero(t, res.DistanceMiles)
	assert.Empty(t, res.Geometry)
}
