package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"pathbuilder-service/internal/platform/obs"
	"pathbuilder-service/internal/ports"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultBaseURL = "https://api.openrouteservice.org"

// ORSDirectionsProvider implements RoutingGateway using OpenRouteService.
//
// It coordinates:
//   - Request fingerprinting and result caching
//   - Collapsing identical in-flight requests
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	cache          ports.DirectionsCache
	group          singleflight.Group
	maxAttempts    int
	initialBackoff time.Duration
	flightTimeout  time.Duration
}

type Option func(*ORSDirectionsProvider)

func WithBaseURL(u string) Option {
	return func(o *ORSDirectionsProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSDirectionsProvider) { o.session = c }
}

func WithRetry(maxAttempts int, initialBackoff time.Duration) Option {
	return func(o *ORSDirectionsProvider) {
		o.maxAttempts = maxAttempts
		o.initialBackoff = initialBackoff
	}
}

// WithFlightTimeout bounds a shared upstream fetch, independent of the
// callers waiting on it.
func WithFlightTimeout(d time.Duration) Option {
	return func(o *ORSDirectionsProvider) { o.flightTimeout = d }
}

// NewORSDirectionsProvider builds a provider; cache may be nil.
func NewORSDirectionsProvider(
	apiKey string,
	cache ports.DirectionsCache,
	opts ...Option,
) (*ORSDirectionsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSDirectionsProvider{
		session:        &http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		cache:          cache,
		maxAttempts:    4,
		initialBackoff: 200 * time.Millisecond,
		flightTimeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(provider)
	}

	if provider.maxAttempts < 1 {
		return nil, fmt.Errorf("ORS max attempts must be positive, got %d", provider.maxAttempts)
	}

	if provider.flightTimeout <= 0 {
		return nil, fmt.Errorf("ORS flight timeout must be positive, got %s", provider.flightTimeout)
	}

	return provider, nil
}

// Directions returns the routed path for req, consulting the cache first.
func (o *ORSDirectionsProvider) Directions(
	ctx context.Context,
	req ports.DirectionsRequest,
) (_ ports.DirectionsResult, err error) {
	defer obs.Time(ctx, "ors.Directions")(&err)

	if strings.TrimSpace(req.Profile) == "" {
		return ports.DirectionsResult{}, errors.New("get ORS directions: profile must be non-empty")
	}

	if len(req.Coordinates) < 2 {
		return ports.DirectionsResult{}, fmt.Errorf(
			"get ORS directions: need at least 2 coordinates, got %d",
			len(req.Coordinates),
		)
	}

	key := DirectionsCacheKey(req)

	// Check the cache before issuing external API calls.
	if o.cache != nil {
		hit, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("directions cache read failed", zap.Error(err))
		} else if ok {
			return hit, nil
		}
	}

	// The shared fetch ignores caller cancellation; each caller stops waiting
	// on its own ctx.
	ch := o.group.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.flightTimeout)
		defer cancel()

		result, err := o.fetchDirections(flightCtx, req)
		if err != nil {
			return nil, err
		}

		if o.cache != nil {
			if err := o.cache.Put(flightCtx, key, result); err != nil {
				zap.L().Warn("directions cache write failed", zap.Error(err))
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return ports.DirectionsResult{}, fmt.Errorf("get ORS directions profile=%s: %w", req.Profile, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return ports.DirectionsResult{}, fmt.Errorf("get ORS directions profile=%s: %w", req.Profile, res.Err)
		}
		return res.Val.(ports.DirectionsResult), nil
	}
}

// DirectionsCacheKey fingerprints a request. Coordinates are rounded to
// 1e-6 degrees (about 0.1 m) so float noise does not defeat the cache.
func DirectionsCacheKey(req ports.DirectionsRequest) string {
	var b strings.Builder
	b.WriteString(req.Profile)
	b.WriteString("|")
	b.WriteString(strconv.FormatBool(req.Elevation))
	for _, c := range req.Coordinates {
		b.WriteString("|")
		for i, v := range c {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
