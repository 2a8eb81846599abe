package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"pathbuilder-service/internal/ports"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Elevation    bool        `json:"elevation"`
	Instructions bool        `json:"instructions"`
}

// GeoJSON FeatureCollection returned by /v2/directions/{profile}/geojson.
// Coordinates are kept as raw float slices so the optional third
// (elevation) component survives decoding.
type directionsResponse struct {
	Features []struct {
		Geometry *struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties *struct {
			Summary *struct {
				Distance *float64 `json:"distance"`
				Duration *float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
	Error json.RawMessage `json:"error"`
}

// fetchDirections requests a routed path through all coordinates, in order,
// from the OpenRouteService directions endpoint.
func (o *ORSDirectionsProvider) fetchDirections(
	ctx context.Context,
	req ports.DirectionsRequest,
) (ports.DirectionsResult, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, req.Profile)

	bodyObj := directionsRequest{
		Coordinates:  req.Coordinates,
		Elevation:    req.Elevation,
		Instructions: false,
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		body := bytes.NewReader(payload)
		return o.newRequest(ctx, http.MethodPost, endpoint, body)
	})
	if err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.DirectionsResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	return dr.toResult()
}

func (dr *directionsResponse) toResult() (ports.DirectionsResult, error) {
	if len(dr.Error) > 0 && !bytes.Equal(dr.Error, []byte("null")) {
		return ports.DirectionsResult{}, fmt.Errorf("directions service error: %s", dr.Error)
	}

	if len(dr.Features) == 0 {
		return ports.DirectionsResult{}, errors.New("directions response has no features")
	}

	feature := dr.Features[0]
	if feature.Geometry == nil || feature.Properties == nil || feature.Properties.Summary == nil {
		return ports.DirectionsResult{}, errors.New("directions response missing geometry or summary")
	}

	path := feature.Geometry.Coordinates
	if len(path) == 0 {
		return ports.DirectionsResult{}, errors.New("directions response has empty geometry")
	}

	for i, p := range path {
		if len(p) < 2 {
			return ports.DirectionsResult{}, fmt.Errorf("directions response: invalid coordinate at index %d", i)
		}
	}

	// ORS omits the distance for zero-length routes.
	meters := 0.0
	if d := feature.Properties.Summary.Distance; d != nil {
		meters = *d
	}

	return ports.DirectionsResult{
		TotalDistanceMeters: meters,
		Path:                path,
	}, nil
}
