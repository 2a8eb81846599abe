package domain

import (
	"fmt"
	"strings"
)

// TravelMode selects the routing profile and the speed used for time estimates.
type TravelMode string

const (
	ModeUnset TravelMode = ""
	ModeWalk  TravelMode = "walk"
	ModeDrive TravelMode = "drive"
)

const (
	walkSpeedMph  = 3.0
	driveSpeedMph = 30.0
)

// IsValid reports whether m is a selectable mode. ModeUnset is not.
func (m TravelMode) IsValid() bool {
	switch m {
	case ModeWalk, ModeDrive:
		return true
	default:
		return false
	}
}

// Profile returns the routing-service profile name for the mode.
// An unset mode routes as walking.
func (m TravelMode) Profile() string {
	if m == ModeDrive {
		return "driving-car"
	}
	return "foot-walking"
}

// SpeedMph returns the average speed used to estimate travel time.
func (m TravelMode) SpeedMph() float64 {
	if m == ModeDrive {
		return driveSpeedMph
	}
	return walkSpeedMph
}

func ParseTravelMode(s string) (TravelMode, error) {
	m := TravelMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return ModeUnset, fmt.Errorf("parse travel mode: unknown mode %q", s)
	}
	return m, nil
}

// MapLayer is the map style preference kept across draft resets.
type MapLayer string

const (
	LayerStandard  MapLayer = "standard"
	LayerSatellite MapLayer = "satellite"
)

func (l MapLayer) Toggle() MapLayer {
	if l == LayerSatellite {
		return LayerStandard
	}
	return LayerSatellite
}
