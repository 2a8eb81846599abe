package ports

import (
	"context"
	"errors"
	"pathbuilder-service/internal/domain"
)

var ErrRouteNotFound = errors.New("route not found")

// Port: durable storage of completed routes.
type RouteStore interface {
	// Retrieve all stored routes, newest first.
	ListRoutes(ctx context.Context) ([]domain.RouteRecord, error)
	GetRoute(ctx context.Context, id int64) (domain.RouteRecord, error)
	// Insert a route and return the identity assigned by the store.
	InsertRoute(ctx context.Context, route domain.RouteRecord) (int64, error)
	DeleteRoute(ctx context.Context, id int64) error
	ClearRoutes(ctx context.Context) error
}
