package cache

import (
	"context"
	"pathbuilder-service/internal/ports"

	"go.uber.org/zap"
)

// LayeredDirectionsCache reads through a fast front cache to a shared back
// cache. Back hits are promoted to the front; writes go to both layers.
type LayeredDirectionsCache struct {
	front ports.DirectionsCache
	back  ports.DirectionsCache
}

func NewLayeredDirectionsCache(front, back ports.DirectionsCache) *LayeredDirectionsCache {
	return &LayeredDirectionsCache{front: front, back: back}
}

func (l *LayeredDirectionsCache) Get(ctx context.Context, key string) (ports.DirectionsResult, bool, error) {
	if res, ok, err := l.front.Get(ctx, key); err == nil && ok {
		return res, true, nil
	} else if err != nil {
		zap.L().Warn("front directions cache read failed", zap.Error(err))
	}

	res, ok, err := l.back.Get(ctx, key)
	if err != nil || !ok {
		return res, ok, err
	}

	if err := l.front.Put(ctx, key, res); err != nil {
		zap.L().Warn("front directions cache promote failed", zap.Error(err))
	}
	return res, true, nil
}

func (l *LayeredDirectionsCache) Put(ctx context.Context, key string, result ports.DirectionsResult) error {
	if err := l.front.Put(ctx, key, result); err != nil {
		zap.L().Warn("front directions cache write failed", zap.Error(err))
	}
	return l.back.Put(ctx, key, result)
}
