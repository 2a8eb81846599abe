package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/platform/obs"
	"pathbuilder-service/internal/ports"
	"time"
)

// Postgres-backed implementation of the RouteStore port.
type SQLRouteStore struct {
	DB *sql.DB
}

func NewSQLRouteStore(db *sql.DB) *SQLRouteStore {
	return &SQLRouteStore{DB: db}
}

const pgRouteSelect = `
	SELECT
		id,
		name,
		distance_miles,
		elevation_feet,
		difficulty,
		mode,
		estimated_time_minutes,
		waypoints::text,
		geometry::text,
		created_at
	FROM routes
`

func (s *SQLRouteStore) ListRoutes(ctx context.Context) (_ []domain.RouteRecord, err error) {
	defer obs.Time(ctx, "routes.sql.ListRoutes")(&err)

	if s.DB == nil {
		return nil, errors.New("sql route store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, pgRouteSelect+` ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.RouteRecord, 0, 16)
	for rows.Next() {
		r, err := scanPgRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		routes = append(routes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

func (s *SQLRouteStore) GetRoute(ctx context.Context, id int64) (_ domain.RouteRecord, err error) {
	defer obs.Time(ctx, "routes.sql.GetRoute")(&err)

	if s.DB == nil {
		return domain.RouteRecord{}, errors.New("sql route store: DB is nil")
	}

	r, err := scanPgRoute(s.DB.QueryRowContext(ctx, pgRouteSelect+` WHERE id = $1;`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RouteRecord{}, ports.ErrRouteNotFound
		}
		return domain.RouteRecord{}, fmt.Errorf("get route id=%d: %w", id, err)
	}
	return r, nil
}

func (s *SQLRouteStore) InsertRoute(ctx context.Context, route domain.RouteRecord) (_ int64, err error) {
	defer obs.Time(ctx, "routes.sql.InsertRoute")(&err)

	if s.DB == nil {
		return 0, errors.New("sql route store: DB is nil")
	}

	waypoints, err := encodePoints(route.Waypoints)
	if err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}
	geometry, err := encodePoints(route.Geometry)
	if err != nil {
		return 0, fmt.Errorf("insert route: %w", err)
	}

	createdAt := route.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err = s.DB.QueryRowContext(ctx, `
	INSERT INTO routes (
		name,
		distance_miles,
		elevation_feet,
		difficulty,
		mode,
		estimated_time_minutes,
		waypoints,
		geometry,
		created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9)
	RETURNING id;
	`,
		route.Name,
		route.DistanceMiles,
		route.ElevationFeet,
		string(route.Difficulty),
		string(route.Mode),
		route.EstimatedTimeMinutes,
		waypoints,
		geometry,
		createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert route name=%q: %w", route.Name, err)
	}

	return id, nil
}

func (s *SQLRouteStore) DeleteRoute(ctx context.Context, id int64) (err error) {
	defer obs.Time(ctx, "routes.sql.DeleteRoute")(&err)

	if s.DB == nil {
		return errors.New("sql route store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM routes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete route id=%d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *SQLRouteStore) ClearRoutes(ctx context.Context) (err error) {
	defer obs.Time(ctx, "routes.sql.ClearRoutes")(&err)

	if s.DB == nil {
		return errors.New("sql route store: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM routes;`); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}
	return nil
}

func scanPgRoute(row rowScanner) (domain.RouteRecord, error) {
	var (
		r                   domain.RouteRecord
		difficulty, mode    string
		waypoints, geometry string
		createdAt           time.Time
	)
	if err := row.Scan(
		&r.ID,
		&r.Name,
		&r.DistanceMiles,
		&r.ElevationFeet,
		&difficulty,
		&mode,
		&r.EstimatedTimeMinutes,
		&waypoints,
		&geometry,
		&createdAt,
	); err != nil {
		return domain.RouteRecord{}, err
	}

	return finishRoute(r, difficulty, mode, waypoints, geometry, createdAt.UTC())
}
