package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty grade derived from distance and elevation gain.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "Easy"
	DifficultyModerate Difficulty = "Moderate"
	DifficultyHard     Difficulty = "Hard"
)

// DifficultyFor scores a route as distance + elevation/100.
func DifficultyFor(distanceMiles, elevationFeet float64) Difficulty {
	score := distanceMiles + elevationFeet/100
	switch {
	case score > 8:
		return DifficultyHard
	case score > 4:
		return DifficultyModerate
	default:
		return DifficultyEasy
	}
}

// ElevationRange buckets a route's total climb for filtering.
type ElevationRange string

const (
	ElevationFlat   ElevationRange = "Flat"
	ElevationLow    ElevationRange = "Low"
	ElevationMedium ElevationRange = "Medium"
	ElevationHigh   ElevationRange = "High"
)

func ElevationRangeFor(elevationFeet float64) ElevationRange {
	switch {
	case elevationFeet < 100:
		return ElevationFlat
	case elevationFeet < 500:
		return ElevationLow
	case elevationFeet < 1500:
		return ElevationMedium
	default:
		return ElevationHigh
	}
}

// Represents a completed, persisted route.
// A RouteRecord is built once at save time from a draft and is never mutated
// afterwards; ID is zero until the store assigns one.
type RouteRecord struct {
	ID                   int64
	Name                 string
	DistanceMiles        float64
	ElevationFeet        float64
	Difficulty           Difficulty
	Mode                 TravelMode
	EstimatedTimeMinutes int
	Waypoints            []Waypoint
	Geometry             []Waypoint
	CreatedAt            time.Time
}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range []Difficulty{DifficultyEasy, DifficultyModerate, DifficultyHard} {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("parse difficulty: unknown difficulty %q", s)
}

func ParseElevationRange(s string) (ElevationRange, error) {
	for _, r := range []ElevationRange{ElevationFlat, ElevationLow, ElevationMedium, ElevationHigh} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("parse elevation range: unknown range %q", s)
}
