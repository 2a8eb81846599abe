package export

import (
	"fmt"
	"pathbuilder-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ToGeoJSON renders a saved route as a FeatureCollection holding the
// geometry LineString followed by one Point per anchor. GeoJSON positions
// are two-dimensional here; elevation is only carried in GPX.
func ToGeoJSON(route domain.RouteRecord) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(route.Geometry))
	for _, w := range route.Geometry {
		line = append(line, orb.Point{w.Longitude, w.Latitude})
	}

	path := geojson.NewFeature(line)
	path.Properties = geojson.Properties{
		"kind":                   "route",
		"id":                     route.ID,
		"name":                   route.Name,
		"mode":                   string(route.Mode),
		"difficulty":             string(route.Difficulty),
		"distance_miles":         route.DistanceMiles,
		"elevation_feet":         route.ElevationFeet,
		"estimated_time_minutes": route.EstimatedTimeMinutes,
	}
	fc.Append(path)

	for i, w := range route.Waypoints {
		f := geojson.NewFeature(orb.Point{w.Longitude, w.Latitude})
		f.Properties = geojson.Properties{
			"kind":           "waypoint",
			"index":          i,
			"elevation_feet": w.ElevationFeet,
		}
		fc.Append(f)
	}

	out, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export geojson route id=%d: %w", route.ID, err)
	}
	return out, nil
}
