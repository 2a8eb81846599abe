package domain

// Immutable geographic anchor point placed by the user.
// Elevation is zero when the source (e.g. a map tap) carries none.
type Waypoint struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ElevationFeet float64 `json:"elevation_feet"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (w Waypoint) CoordsToList() []float64 { return []float64{w.Longitude, w.Latitude} }

// ElevationMeters converts the stored elevation back to meters.
func (w Waypoint) ElevationMeters() float64 { return w.ElevationFeet / FeetPerMeter }
