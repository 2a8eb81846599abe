package repositories

import (
	"context"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"slices"
	"sync"
	"time"
)

// In-process RouteStore. Used by tests and DB_DRIVER=memory.
type MemoryRouteStore struct {
	mu     sync.Mutex
	nextID int64
	routes []domain.RouteRecord

	// Optional hook to force failures from InsertRoute.
	InsertErr error
}

func NewMemoryRouteStore() *MemoryRouteStore {
	return &MemoryRouteStore{nextID: 1}
}

func (m *MemoryRouteStore) ListRoutes(_ context.Context) ([]domain.RouteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.RouteRecord, 0, len(m.routes))
	for i := len(m.routes) - 1; i >= 0; i-- {
		out = append(out, m.routes[i])
	}
	return out, nil
}

func (m *MemoryRouteStore) GetRoute(_ context.Context, id int64) (domain.RouteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.routes {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.RouteRecord{}, ports.ErrRouteNotFound
}

func (m *MemoryRouteStore) InsertRoute(_ context.Context, route domain.RouteRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		return 0, m.InsertErr
	}

	if m.nextID == 0 {
		m.nextID = 1
	}
	route.ID = m.nextID
	m.nextID++
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}
	route.Waypoints = slices.Clone(route.Waypoints)
	route.Geometry = slices.Clone(route.Geometry)
	m.routes = append(m.routes, route)
	return route.ID, nil
}

func (m *MemoryRouteStore) DeleteRoute(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.routes {
		if r.ID == id {
			m.routes = slices.Delete(m.routes, i, i+1)
			return nil
		}
	}
	return ports.ErrRouteNotFound
}

func (m *MemoryRouteStore) ClearRoutes(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = nil
	return nil
}
