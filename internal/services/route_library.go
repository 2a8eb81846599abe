package services

import (
	"context"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// RouteFilter narrows a route list. Empty sets match everything.
type RouteFilter struct {
	Query           string
	Modes           []domain.TravelMode
	Difficulties    []domain.Difficulty
	ElevationRanges []domain.ElevationRange
}

func (f RouteFilter) Match(r domain.RouteRecord) bool {
	if q := strings.TrimSpace(f.Query); q != "" &&
		!strings.Contains(strings.ToLower(r.Name), strings.ToLower(q)) {
		return false
	}
	if len(f.Modes) > 0 && !contains(f.Modes, r.Mode) {
		return false
	}
	if len(f.Difficulties) > 0 && !contains(f.Difficulties, r.Difficulty) {
		return false
	}
	if len(f.ElevationRanges) > 0 && !contains(f.ElevationRanges, domain.ElevationRangeFor(r.ElevationFeet)) {
		return false
	}
	return true
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func FilterRoutes(routes []domain.RouteRecord, f RouteFilter) []domain.RouteRecord {
	out := make([]domain.RouteRecord, 0, len(routes))
	for _, r := range routes {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type RouteStats struct {
	RouteCount           int     `json:"route_count"`
	TotalWalkMiles       float64 `json:"total_walk_miles"`
	TotalDriveMiles      float64 `json:"total_drive_miles"`
	AverageElevationGain float64 `json:"average_elevation_gain"`
}

func ComputeStats(routes []domain.RouteRecord) RouteStats {
	var st RouteStats
	var elevation float64
	for _, r := range routes {
		switch r.Mode {
		case domain.ModeWalk:
			st.TotalWalkMiles += r.DistanceMiles
		case domain.ModeDrive:
			st.TotalDriveMiles += r.DistanceMiles
		}
		elevation += r.ElevationFeet
	}
	st.RouteCount = len(routes)
	if len(routes) > 0 {
		st.AverageElevationGain = elevation / float64(len(routes))
	}
	return st
}

// RouteLibrary is the read side of the route store: listing, filtering,
// stats, deletion and a live feed of the stored routes.
type RouteLibrary struct {
	store  ports.RouteStore
	logger *zap.Logger

	mu       sync.Mutex
	watchers map[int]chan []domain.RouteRecord
	nextID   int
}

func NewRouteLibrary(store ports.RouteStore, logger *zap.Logger) *RouteLibrary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouteLibrary{
		store:    store,
		logger:   logger,
		watchers: make(map[int]chan []domain.RouteRecord),
	}
}

func (l *RouteLibrary) List(ctx context.Context, f RouteFilter) ([]domain.RouteRecord, error) {
	routes, err := l.store.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return FilterRoutes(routes, f), nil
}

func (l *RouteLibrary) Get(ctx context.Context, id int64) (domain.RouteRecord, error) {
	r, err := l.store.GetRoute(ctx, id)
	if err != nil {
		return domain.RouteRecord{}, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

func (l *RouteLibrary) Stats(ctx context.Context) (RouteStats, error) {
	routes, err := l.store.ListRoutes(ctx)
	if err != nil {
		return RouteStats{}, fmt.Errorf("route stats: %w", err)
	}
	return ComputeStats(routes), nil
}

func (l *RouteLibrary) Delete(ctx context.Context, id int64) error {
	if err := l.store.DeleteRoute(ctx, id); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	l.Changed(ctx)
	return nil
}

func (l *RouteLibrary) Clear(ctx context.Context) error {
	if err := l.store.ClearRoutes(ctx); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}
	l.Changed(ctx)
	return nil
}

// Observe emits the current route list, newest first, and a fresh list after
// every change made through the library. Only the latest list is buffered.
// The channel is closed when ctx is done.
func (l *RouteLibrary) Observe(ctx context.Context) (<-chan []domain.RouteRecord, error) {
	routes, err := l.store.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("observe routes: %w", err)
	}

	ch := make(chan []domain.RouteRecord, 1)
	ch <- routes

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.watchers[id] = ch
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.watchers, id)
		close(ch)
	}()

	return ch, nil
}

// Changed reloads the route list and pushes it to every observer.
func (l *RouteLibrary) Changed(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.watchers) == 0 {
		return
	}

	routes, err := l.store.ListRoutes(ctx)
	if err != nil {
		l.logger.Warn("reload routes for observers failed", zap.Error(err))
		return
	}

	for _, ch := range l.watchers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- routes:
		default:
		}
	}
}
