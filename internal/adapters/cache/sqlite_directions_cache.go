package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"pathbuilder-service/internal/ports"
	"strings"
)

// SQLite backed cache for routed directions.
// Keys are request fingerprints produced by the routing adapter.
type SqliteDirectionsCache struct {
	DB *sql.DB
}

func NewSqliteDirectionsCache(db *sql.DB) *SqliteDirectionsCache {
	return &SqliteDirectionsCache{DB: db}
}

func (s *SqliteDirectionsCache) Get(ctx context.Context, key string) (ports.DirectionsResult, bool, error) {
	if s.DB == nil {
		return ports.DirectionsResult{}, false, errors.New("directions cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return ports.DirectionsResult{}, false, errors.New("get directions cache: key must not be empty")
	}

	q := `
	SELECT 
        distance_meters,
        path
    FROM directions_cache
    WHERE request_key = ?;
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

func (s *SqliteDirectionsCache) Put(ctx context.Context, key string, result ports.DirectionsResult) error {
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
	INSERT OR REPLACE INTO directions_cache (
        request_key,
        distance_meters,
        path
    )
    VALUES (?, ?, ?);
	`, key, result.TotalDistanceMeters, string(path)); err != nil {
		return fmt.Errorf("insert directions cache key=%q: %w", key, err)
	}

	return nil
}
