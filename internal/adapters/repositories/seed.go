package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"pathbuilder-service/internal/domain"
	"pathbuilder-service/internal/ports"
	"strings"
)

type RouteSeed struct {
	Name      string            `json:"name"`
	Mode      string            `json:"mode"`
	Waypoints []domain.Waypoint `json:"waypoints"`
}

// Populate an empty store with routes from a JSON file.
// Metrics are derived from the waypoints the same way a manual draft is.
// Returns the number of routes inserted; a store that already holds routes
// is left alone.
func SeedFromJSON(ctx context.Context, store ports.RouteStore, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed routes: parse json: %w", err)
	}

	records := make([]domain.RouteRecord, 0, len(data))
	for i, item := range data {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return 0, fmt.Errorf("seed routes: item at index %d: name cannot be empty", i+1)
		}

		mode, err := domain.ParseTravelMode(item.Mode)
		if err != nil {
			return 0, fmt.Errorf("seed routes: item at index %d: %w", i+1, err)
		}

		if len(item.Waypoints) < 2 {
			return 0, fmt.Errorf("seed routes: item at index %d: need at least 2 waypoints", i+1)
		}

		dist := domain.PathDistanceMiles(item.Waypoints)
		gain := domain.ElevationGain(item.Waypoints)
		records = append(records, domain.RouteRecord{
			Name:                 name,
			DistanceMiles:        dist,
			ElevationFeet:        gain,
			Difficulty:           domain.DifficultyFor(dist, gain),
			Mode:                 mode,
			EstimatedTimeMinutes: domain.EstimateTravelMinutes(dist, mode),
			Waypoints:            item.Waypoints,
			Geometry:             item.Waypoints,
		})
	}

	existing, err := store.ListRoutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed routes: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for _, r := range records {
		if _, err := store.InsertRoute(ctx, r); err != nil {
			return 0, fmt.Errorf("seed routes: insert %q: %w", r.Name, err)
		}
	}

	return len(records), nil
}
