package routing

import (
	"context"
	"errors"
	"pathbuilder-service/internal/ports"
	"sync"
)

var ErrMockUnavailable = errors.New("mock routing gateway unavailable")

// MockRoutingGateway answers directions requests through a caller-supplied
// function and records every request it receives.
type MockRoutingGateway struct {
	mu       sync.Mutex
	handle   func(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error)
	requests []ports.DirectionsRequest
}

func NewMockRoutingGateway(
	handle func(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error),
) *MockRoutingGateway {
	return &MockRoutingGateway{handle: handle}
}

// NewFailingGateway fails every request with err (ErrMockUnavailable if nil).
func NewFailingGateway(err error) *MockRoutingGateway {
	if err == nil {
		err = ErrMockUnavailable
	}
	return NewMockRoutingGateway(func(context.Context, ports.DirectionsRequest) (ports.DirectionsResult, error) {
		return ports.DirectionsResult{}, err
	})
}

// NewEchoGateway routes through the requested coordinates unchanged at a
// fixed elevation and reports metersPerLeg for every leg.
func NewEchoGateway(elevationMeters float64, metersPerLeg float64) *MockRoutingGateway {
	return NewMockRoutingGateway(func(_ context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
		path := make([][]float64, 0, len(req.Coordinates))
		for _, c := range req.Coordinates {
			path = append(path, []float64{c[0], c[1], elevationMeters})
		}
		return ports.DirectionsResult{
			TotalDistanceMeters: metersPerLeg * float64(len(req.Coordinates)-1),
			Path:                path,
		}, nil
	})
}

func (m *MockRoutingGateway) Directions(ctx context.Context, req ports.DirectionsRequest) (ports.DirectionsResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	return m.handle(ctx, req)
}

func (m *MockRoutingGateway) Requests() []ports.DirectionsRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ports.DirectionsRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockRoutingGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}
