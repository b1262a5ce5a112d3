package geocoding

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
	googleGeocodeURL   = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultHTTPTimeout = 8 * time.Second
	geocodeCachePrefix = "geo:v3:geocode:"
)

// GoogleProvider implements GeocodingProvider with the Google Geocoding API.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
	baseURL    string
}

// NewGoogleProvider creates a new Google geocoder.
func NewGoogleProvider(apiKey string, cache providers.CacheProvider, cacheTTL time.Duration) *GoogleProvider {
	return NewGoogleProviderWithOptions(apiKey, cache, cacheTTL, googleGeocodeURL, nil)
}

// NewGoogleProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleProviderWithOptions(apiKey string, cache providers.CacheProvider, cacheTTL time.Duration, baseURL string, httpClient *http.Client) *GoogleProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
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

// Geocode resolves a place name. ZERO_RESULTS is a NOT_FOUND result, not an error.
func (g *GoogleProvider) Geocode(ctx context.Context, query string) (providers.GeocodeResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return providers.GeocodeResult{}, apperrors.NewValidationError("place name is required")
	}

	key := cache.Key(geocodeCachePrefix+"google:", trimmed)
	var cached cachedResult
	if cache.GetJSON(ctx, g.cache, key, &cached) {
		return cached.result(), nil
	}

	resp, err := g.doGeocodeRequest(ctx, url.Values{"address": []string{trimmed}})
	if err != nil {
		return providers.GeocodeResult{}, err
	}

	res := providers.NotFound()
	if resp.Status == "OK" && len(resp.Results) > 0 {
		res = providers.Found(resp.Results[0].toPlace(trimmed))
	}

	cache.SetJSON(ctx, g.cache, key, newCachedResult(res), g.cacheTTL)
	return res, nil
}

func (g *GoogleProvider) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, apperrors.NewUnavailableError("google maps api key is required")
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalError("failed to decode geocode response", err)
	}

	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	}
	if payload.ErrorMessage != "" {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request failed: %s - %s", payload.Status, payload.ErrorMessage), nil)
	}
	return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request failed: %s", payload.Status), nil)
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	PlaceID           string                   `json:"place_id"`
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
	Geometry          googleGeometry           `json:"geometry"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type googleGeometry struct {
	Location googleLocation  `json:"location"`
	Viewport *googleViewport `json:"viewport,omitempty"`
}

type googleViewport struct {
	Northeast googleLocation `json:"northeast"`
	Southwest googleLocation `json:"southwest"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (r googleGeocodeResult) toPlace(query string) *entities.ResolvedPlace {
	name := query
	if len(r.AddressComponents) > 0 && r.AddressComponents[0].LongName != "" {
		name = r.AddressComponents[0].LongName
	}

	place := &entities.ResolvedPlace{
		Name:    name,
		PlaceID: r.PlaceID,
		Address: r.FormattedAddress,
		Location: entities.Coordinates{
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		},
	}
	if vp := r.Geometry.Viewport; vp != nil {
		place.Viewport = &entities.Bounds{
			North: vp.Northeast.Lat,
			South: vp.Southwest.Lat,
			East:  vp.Northeast.Lng,
			West:  vp.Southwest.Lng,
		}
	}
	return place
}

// cachedResult is the cache encoding of a GeocodeResult; misses are cached too
type cachedResult struct {
	Status providers.GeocodeStatus `json:"status"`
	Place  *entities.ResolvedPlace `json:"place,omitempty"`
}

func newCachedResult(r providers.GeocodeResult) cachedResult {
	return cachedResult{Status: r.Status, Place: r.Place}
}

func (c cachedResult) result() providers.GeocodeResult {
	if c.Status == providers.GeocodeStatusOK && c.Place != nil {
		return providers.Found(c.Place)
	}
	return providers.NotFound()
}
