package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"time"
)

// SQLite-backed implementation of the RouteStore port.
type SqliteRouteStore struct{ DB *sql.DB }

func NewSqliteRouteStore(db *sql.DB) *SqliteRouteStore {
	return &SqliteRouteStore{DB: db}
}

const sqliteRouteColumns = `
		id,
		name,
		distance_miles,
		elevation_feet,
		difficulty,
		mode,
		estimated_time_minutes,
		waypoints,
		geometry,
		created_at
`

// Return all routes stored in the database, newest first.
func (s *SqliteRouteStore) ListRoutes(ctx context.Context) ([]domain.RouteRecord, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route store: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT`+sqliteRouteColumns+`FROM routes ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.RouteRecord, 0, 16)
	for rows.Next() {
		r, err := scanSqliteRoute(rows)
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

func (s *SqliteRouteStore) GetRoute(ctx context.Context, id int64) (domain.RouteRecord, error) {
	if s.DB == nil {
		return domain.RouteRecord{}, errors.New("sqlite route store: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, `SELECT`+sqliteRouteColumns+`FROM routes WHERE id = ?;`, id)
	r, err := scanSqliteRoute(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RouteRecord{}, ports.ErrRouteNotFound
		}
		return domain.RouteRecord{}, fmt.Errorf("get route id=%d: %w", id, err)
	}
	return r, nil
}

func (s *SqliteRouteStore) InsertRoute(ctx context.Context, route domain.RouteRecord) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("sqlite route store: DB is nil")
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

	res, err := s.DB.ExecContext(ctx, `
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`,
		route.Name,
		route.DistanceMiles,
		route.ElevationFeet,
		string(route.Difficulty),
		string(route.Mode),
		route.EstimatedTimeMinutes,
		waypoints,
		geometry,
		createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert route name=%q: %w", route.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert route: read id: %w", err)
	}
	return id, nil
}

func (s *SqliteRouteStore) DeleteRoute(ctx context.Context, id int64) error {
	if s.DB == nil {
		return errors.New("sqlite route store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM routes WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete route id=%d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *SqliteRouteStore) ClearRoutes(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("sqlite route store: DB is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM routes;`); err != nil {
		return fmt.Errorf("clear routes: %w", err)
	}
	return nil
}

func scanSqliteRoute(row rowScanner) (domain.RouteRecord, error) {
	var (
		r                   domain.RouteRecord
		difficulty, mode    string
		waypoints, geometry string
		createdAt           int64
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

	return finishRoute(r, difficulty, mode, waypoints, geometry, time.UnixMilli(createdAt).UTC())
}

func finishRoute(
	r domain.RouteRecord,
	difficulty, mode, waypoints, geometry string,
	createdAt time.Time,
) (domain.RouteRecord, error) {
	var err error
	r.Difficulty = domain.Difficulty(difficulty)
	r.Mode = domain.TravelMode(mode)
	r.CreatedAt = createdAt
	if r.Waypoints, err = decodePoints(waypoints); err != nil {
		return domain.RouteRecord{}, fmt.Errorf("route id=%d waypoints: %w", r.ID, err)
	}
	if r.Geometry, err = decodePoints(geometry); err != nil {
		return domain.RouteRecord{}, fmt.Errorf("route id=%d geometry: %w", r.ID, err)
	}
	return r, nil
}

func requireAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete route id=%d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ports.ErrRouteNotFound
	}
	return nil
}
