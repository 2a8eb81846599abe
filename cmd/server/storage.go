package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"pathbuilder-service/internal/adapters/cache"
	"pathbuilder-service/internal/adapters/repositories"
	"pathbuilder-service/internal/config"
	"pathbuilder-service/internal/platform/db"
	"pathbuilder-service/internal/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type storage struct {
	routes ports.RouteStore
	// durable directions cache backed by the same database, nil for memory
	directions ports.DirectionsCache
	db         *sql.DB
}

func (s *storage) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openStorage selects the route store by DB_DRIVER, initializes its schema
// and seeds demo routes into an empty store.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	st := &storage{}

	switch cfg.DBDriver {
	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitPostgresSchema(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		st.db = conn
		st.routes = repositories.NewSQLRouteStore(conn)
		st.directions = cache.NewSQLDirectionsCache(conn)
	case "sqlite":
		conn, err := db.OpenSqlite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := repositories.InitSchema(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		st.db = conn
		st.routes = repositories.NewSqliteRouteStore(conn)
		st.directions = cache.NewSqliteDirectionsCache(conn)
	case "memory":
		st.routes = repositories.NewMemoryRouteStore()
	default:
		return nil, fmt.Errorf("open storage: unsupported driver %q", cfg.DBDriver)
	}

	if cfg.SeedPath != "" {
		n, err := repositories.SeedFromJSON(ctx, st.routes, cfg.SeedPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no seed file", zap.String("path", cfg.SeedPath))
		case err != nil:
			st.Close()
			return nil, err
		case n > 0:
			logger.Info("seeded routes", zap.Int("count", n))
		}
	}

	return st, nil
}

// buildDirectionsCache puts an in-process LRU in front of Redis when
// REDIS_ADDR is set, otherwise in front of the database cache.
func buildDirectionsCache(
	ctx context.Context,
	cfg *config.Config,
	durable ports.DirectionsCache,
	logger *zap.Logger,
) (ports.DirectionsCache, func(), error) {
	front, err := cache.NewMemoryDirectionsCache(cfg.Cache.Size)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Cache.RedisAddr, err)
		}
		logger.Info("directions cache: memory + redis", zap.String("addr", cfg.Cache.RedisAddr))
		back := cache.NewRedisDirectionsCache(client, cfg.Cache.TTL.Duration)
		return cache.NewLayeredDirectionsCache(front, back), func() { _ = client.Close() }, nil
	}

	if durable != nil {
		logger.Info("directions cache: memory + database")
		return cache.NewLayeredDirectionsCache(front, durable), func() {}, nil
	}

	logger.Info("directions cache: memory")
	return front, func() {}, nil
}
