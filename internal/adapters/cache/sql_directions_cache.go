package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"pathbuilder-service/internal/platform/obs"
	"pathbuilder-service/internal/ports"
	"strings"
)

// SQLDirectionsCache is a Postgres-backed cache for routed directions.
type SQLDirectionsCache struct {
	DB *sql.DB
}

func NewSQLDirectionsCache(db *sql.DB) *SQLDirectionsCache {
	return &SQLDirectionsCache{DB: db}
}

// Fetch a cached directions result by request fingerprint.
func (s *SQLDirectionsCache) Get(
	ctx context.Context,
	key string,
) (_ ports.DirectionsResult, _ bool, err error) {
	defer obs.Time(ctx, "directions.cache.sql.Get")(&err)

	if s.DB == nil {
		return ports.DirectionsResult{}, false, errors.New("directions cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return ports.DirectionsResult{}, false, errors.New("get directions cache: key must not be empty")
	}

	q := `
	SELECT distance_meters, path
    FROM directions_cache
    WHERE request_key = $1;
	`

	var meters float64
	var path string
	if err := s.DB.QueryRowContext(ctx, q, key).Scan(&meters, &path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.DirectionsResult{}, false, nil
		}
		return ports.DirectionsResult{}, false, fmt.Errorf("get directions cache: query directions_cache table: %w", err)
	}

	res, err := decodeRow(meters, path)
	if err != nil {
		return ports.DirectionsResult{}, false, fmt.Errorf("get directions cache: %w", err)
	}

	return res, true, nil
}

// Store a directions result under its request fingerprint.
func (s *SQLDirectionsCache) Put(ctx context.Context, key string, result ports.DirectionsResult) error {
	if s.DB == nil {
		return errors.New("directions cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert directions cache: key must not be empty")
	}

	path, err := json.Marshal(result.Path)
	if err != nil {
		return fmt.Errorf("insert directions cache: encode path: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO directions_cache (request_key, distance_meters, path)
    VALUES ($1, $2, $3)
	ON CONFLICT (request_key) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		path = EXCLUDED.path;
	`, key, result.TotalDistanceMeters, string(path)); err != nil {
		return fmt.Errorf("insert directions cache key=%q: %w", key, err)
	}

	return nil
}

func decodeRow(meters float64, path string) (ports.DirectionsResult, error) {
	var points [][]float64
	if err := json.Unmarshal([]byte(path), &points); err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("decode cached path: %w", err)
	}

	return ports.DirectionsResult{TotalDistanceMeters: meters, Path: points}, nil
}
