package ports

import "context"

// Port: a cache for routing-service results keyed by request fingerprint.
type DirectionsCache interface {
	// Return the cached result and whether it was found.
	Get(ctx context.Context, key string) (DirectionsResult, bool, error)
	Put(ctx context.Context, key string, result DirectionsResult) error
}
