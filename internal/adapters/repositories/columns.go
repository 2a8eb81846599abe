package repositories

import (
	"encoding/json"
	"fmt"
	"pathbuilder-service/internal/domain"
)

// Waypoint lists are stored as JSON arrays in a single column.

func encodePoints(points []domain.Waypoint) (string, error) {
	if points == nil {
		points = []domain.Waypoint{}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("encode points: %w", err)
	}
	return string(b), nil
}

func decodePoints(raw string) ([]domain.Waypoint, error) {
	var points []domain.Waypoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}
	return points, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
