package cache

import (
	"context"
	"errors"
	"fmt"
	"pathbuilder-service/internal/platform/obs"
	"pathbuilder-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const redisKeyPrefix = "pathbuilder:directions:"

// RedisDirectionsCache shares routed directions across service instances.
// Values are msgpack-encoded and expire after ttl (zero means no expiry).
type RedisDirectionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

type redisEntry struct {
	Meters float64     `msgpack:"m"`
	Path   [][]float64 `msgpack:"p"`
}

func NewRedisDirectionsCache(client *redis.Client, ttl time.Duration) *RedisDirectionsCache {
	return &RedisDirectionsCache{client: client, ttl: ttl}
}

func (r *RedisDirectionsCache) Get(
	ctx context.Context,
	key string,
) (_ ports.DirectionsResult, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.redis.Get")(&err)

	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.DirectionsResult{}, false, nil
		}
		return ports.DirectionsResult{}, false, fmt.Errorf("get redis directions cache: %w", err)
	}

	var entry redisEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("get redis directions cache: decode: %w", err)
	}

	return ports.DirectionsResult{TotalDistanceMeters: entry.Meters, Path: entry.Path}, true, nil
}

func (r *RedisDirectionsCache) Put(ctx context.Context, key string, result ports.DirectionsResult) error {
	raw, err := msgpack.Marshal(redisEntry{Meters: result.TotalDistanceMeters, Path: result.Path})
	if err != nil {
		return fmt.Errorf("put redis directions cache: encode: %w", err)
	}

	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("put redis directions cache: %w", err)
	}
	return nil
}
