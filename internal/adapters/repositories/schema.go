package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	return execSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS routes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		distance_miles REAL NOT NULL,
		elevation_feet REAL NOT NULL,
		difficulty TEXT NOT NULL,
		mode TEXT NOT NULL,
		estimated_time_minutes INTEGER NOT NULL,
		waypoints TEXT NOT NULL,
		geometry TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS directions_cache (
        request_key TEXT PRIMARY KEY,
        distance_meters REAL NOT NULL,
        path TEXT NOT NULL
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_routes_created_at
    ON routes(created_at DESC);
	`,
	})
}

// Initialize the Postgres database schema.
func InitPostgresSchema(db *sql.DB) error {
	return execSchema(db, []string{
		`
	CREATE TABLE IF NOT EXISTS routes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		distance_miles DOUBLE PRECISION NOT NULL,
		elevation_feet DOUBLE PRECISION NOT NULL,
		difficulty TEXT NOT NULL,
		mode TEXT NOT NULL,
		estimated_time_minutes INTEGER NOT NULL,
		waypoints JSONB NOT NULL,
		geometry JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS directions_cache (
        request_key TEXT PRIMARY KEY,
        distance_meters DOUBLE PRECISION NOT NULL,
        path TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_routes_created_at
    ON routes(created_at DESC);
	`,
	})
}

func execSchema(db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
