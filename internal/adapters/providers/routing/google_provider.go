package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
)

const (
	googleDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"
	defaultHTTPTimeout  = 10 * time.Second
	routeCachePrefix    = "route:v1:"
)

// GoogleProvider implements RoutingProvider with the Google Directions API.
// Waypoints are sent as ordered stopovers and never optimised.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
	baseURL    string
}

// NewGoogleProvider creates a new Google directions client
func NewGoogleProvider(apiKey string, cache providers.CacheProvider, cacheTTL time.Duration) *GoogleProvider {
	return NewGoogleProviderWithOptions(apiKey, cache, cacheTTL, googleDirectionsURL, nil)
}

// NewGoogleProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleProviderWithOptions(apiKey string, cache providers.CacheProvider, cacheTTL time.Duration, baseURL string, httpClient *http.Client) *GoogleProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleDirectionsURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTL,
		baseURL:    baseURL,
	}
}

// Route requests directions through the stops in order
func (g *GoogleProvider) Route(ctx context.Context, req entities.RouteRequest) (*entities.Directions, error) {
	if !req.Mode.IsGround() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("mode %s is not routable", req.Mode))
	}
	if g.apiKey == "" {
		return nil, apperrors.NewUnavailableError("google maps api key is required")
	}

	key := cache.Key(routeCachePrefix, append([]string{string(req.Mode), req.Origin, req.Destination}, req.Waypoints...)...)
	var cached entities.Directions
	if cache.GetJSON(ctx, g.cache, key, &cached) {
		return &cached, nil
	}

	params := url.Values{}
	params.Set("origin", req.Origin)
	params.Set("destination", req.Destination)
	if len(req.Waypoints) > 0 {
		params.Set("waypoints", strings.Join(req.Waypoints, "|"))
	}
	params.Set("mode", strings.ToLower(string(req.Mode)))
	params.Set("key", g.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewExternalError("directions request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("directions request returned status %d", resp.StatusCode), nil)
	}

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode directions response", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, providers.ErrNoRoute
	case "NOT_FOUND":
		// a stop failed to geocode; no travel mode will fix that
		return nil, apperrors.NewExternalError("directions request failed: a stop could not be geocoded", nil)
	default:
		msg := "directions request failed: " + payload.Status
		if payload.ErrorMessage != "" {
			msg += " - " + payload.ErrorMessage
		}
		return nil, apperrors.NewExternalError(msg, nil)
	}
	if len(payload.Routes) == 0 {
		return nil, providers.ErrNoRoute
	}

	directions := payload.Routes[0].toDirections(req.Mode)
	cache.SetJSON(ctx, g.cache, key, directions, g.cacheTTL)
	return directions, nil
}

type directionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Summary          string             `json:"summary"`
	Legs             []directionsLeg    `json:"legs"`
	OverviewPolyline directionsPolyline `json:"overview_polyline"`
	Bounds           *directionsBounds  `json:"bounds,omitempty"`
}

type directionsPolyline struct {
	Points string `json:"points"`
}

type directionsLeg struct {
	StartAddress  string           `json:"start_address"`
	EndAddress    string           `json:"end_address"`
	StartLocation directionsLatLng `json:"start_location"`
	EndLocation   directionsLatLng `json:"end_location"`
	Distance      directionsValue  `json:"distance"`
	Duration      directionsValue  `json:"duration"`
}

type directionsValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type directionsBounds struct {
	Northeast directionsLatLng `json:"northeast"`
	Southwest directionsLatLng `json:"southwest"`
}

type directionsLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l directionsLatLng) coordinates() entities.Coordinates {
	return entities.Coordinates{Latitude: l.Lat, Longitude: l.Lng}
}

func (r directionsRoute) toDirections(mode entities.TravelMode) *entities.Directions {
	d := &entities.Directions{
		Mode:             mode,
		Summary:          r.Summary,
		OverviewPolyline: r.OverviewPolyline.Points,
		Legs:             make([]entities.RouteLeg, 0, len(r.Legs)),
	}
	for _, leg := range r.Legs {
		d.Legs = append(d.Legs, entities.RouteLeg{
			StartAddress:    leg.StartAddress,
			EndAddress:      leg.EndAddress,
			Start:           leg.StartLocation.coordinates(),
			End:             leg.EndLocation.coordinates(),
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}
	if r.Bounds != nil {
		d.Bounds = &entities.Bounds{
			North: r.Bounds.Northeast.Lat,
			South: r.Bounds.Southwest.Lat,
			East:  r.Bounds.Northeast.Lng,
			West:  r.Bounds.Southwest.Lng,
		}
	}
	return d
}
