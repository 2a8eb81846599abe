package export

import (
	"fmt"
	"pathbuilder-service/internal/domain"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

const creator = "pathbuilder-service"

// ToGPX renders a saved route as a GPX 1.1 document: the measured geometry
// as a single-segment track and the placed anchors as waypoints.
// Elevation is written in meters.
func ToGPX(route domain.RouteRecord) ([]byte, error) {
	doc := gpx.GPX{
		Creator: creator,
		Name:    route.Name,
		Time:    timePtr(route),
	}

	for i, w := range route.Waypoints {
		p := gpxPoint(w)
		p.Name = fmt.Sprintf("WP%d", i+1)
		doc.Waypoints = append(doc.Waypoints, p)
	}

	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(route.Geometry))}
	for _, w := range route.Geometry {
		segment.Points = append(segment.Points, gpxPoint(w))
	}
	doc.Tracks = []gpx.GPXTrack{{
		Name:     route.Name,
		Type:     string(route.Mode),
		Segments: []gpx.GPXTrackSegment{segment},
	}}

	out, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("export gpx route id=%d: %w", route.ID, err)
	}
	return out, nil
}

func gpxPoint(w domain.Waypoint) gpx.GPXPoint {
	return gpx.GPXPoint{
		Point: gpx.Point{
			Latitude:  w.Latitude,
			Longitude: w.Longitude,
			Elevation: *gpx.NewNullableFloat64(w.ElevationMeters()),
		},
	}
}

func timePtr(route domain.RouteRecord) *time.Time {
	if route.CreatedAt.IsZero() {
		return nil
	}
	t := route.CreatedAt.UTC()
	return &t
}
