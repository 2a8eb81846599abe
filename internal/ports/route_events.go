package ports

import (
	"context"
	"pathbuilder-service/internal/domain"
)

// Optional sink notified after a route has been stored.
type RouteEventPublisher interface {
	PublishRouteSaved(ctx context.Context, route domain.RouteRecord) error
}
