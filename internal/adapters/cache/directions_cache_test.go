package cache

import (
	"context"
	"errors"
	"pathbuilder-service/internal/adapters/repositories"
	"pathbuilder-service/internal/platform/db"
	"pathbuilder-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleResult = ports.DirectionsResult{
	TotalDistanceMeters: 1234.5,
	Path:                [][]float64{{-75.0, 40.0, 12.5}, {-75.01, 40.01, 20}},
}

func TestMemoryDirectionsCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewMemoryDirectionsCache(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "a", sampleResult))
	require.NoError(t, c.Put(ctx, "b", sampleResult))
	_, ok, _ := c.Get(ctx, "a")
	require.True(t, ok)
	require.NoError(t, c.Put(ctx, "c", sampleResult))

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok)
	got, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleResult, got)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryDirectionsCache_RejectsBadSize(t *testing.T) {
	_, err := NewMemoryDirectionsCache(0)
	assert.Error(t, err)
}

func TestSqliteDirectionsCache_RoundTrip(t *testing.T) {
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	c := NewSqliteDirectionsCache(conn)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", sampleResult))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult, got)

	updated := ports.DirectionsResult{TotalDistanceMeters: 1, Path: [][]float64{{1, 2}}}
	require.NoError(t, c.Put(ctx, "k", updated))
	got, _, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	assert.Error(t, c.Put(ctx, " ", sampleResult))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisDirectionsCache_RoundTripAndTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisDirectionsCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", sampleResult))
	assert.True(t, mr.Exists(redisKeyPrefix+"k"))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult, got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDirectionsCache_ServerDown(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewRedisDirectionsCache(client, 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (ports.DirectionsResult, bool, error) {
	return ports.DirectionsResult{}, false, errors.New("broken")
}

func (brokenCache) Put(context.Context, string, ports.DirectionsResult) error {
	return errors.New("broken")
}

func TestLayeredDirectionsCache_PromotesBackHits(t *testing.T) {
	front, err := NewMemoryDirectionsCache(4)
	require.NoError(t, err)
	_, client := newTestRedis(t)
	back := NewRedisDirectionsCache(client, 0)
	ctx := context.Background()

	require.NoError(t, back.Put(ctx, "k", sampleResult))

	layered := NewLayeredDirectionsCache(front, back)
	got, ok, err := layered.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleResult, got)

	_, ok, _ = front.Get(ctx, "k")
	assert.True(t, ok, "back hit should be promoted to the front")
}

func TestLayeredDirectionsCache_WritesThrough(t *testing.T) {
	front, err := NewMemoryDirectionsCache(4)
	require.NoError(t, err)
	back, err := NewMemoryDirectionsCache(4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, NewLayeredDirectionsCache(front, back).Put(ctx, "k", sampleResult))
	assert.Equal(t, 1, front.Len())
	assert.Equal(t, 1, back.Len())
}

func TestLayeredDirectionsCache_FrontFailureFallsBack(t *testing.T) {
	back, err := NewMemoryDirectionsCache(4)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, back.Put(ctx, "k", sampleResult))

	layered := NewLayeredDirectionsCache(brokenCache{}, back)
	got, ok, err := layered.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleResult, got)

	assert.NoError(t, layered.Put(ctx, "j", sampleResult))
}
