package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimProvider implements GeocodingProvider against an OpenStreetMap
// Nominatim server. Requests are rate limited process-wide as the public
// instance's usage policy requires.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      providers.CacheProvider
	cacheTTL   time.Duration
}

// NominatimOptions configures a NominatimProvider
type NominatimOptions struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Cache             providers.CacheProvider
	CacheTTL          time.Duration
	HTTPClient        *http.Client
}

// NewNominatimProvider creates a Nominatim geocoder
func NewNominatimProvider(opts NominatimOptions) *NominatimProvider {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = defaultNominatimURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &NominatimProvider{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
	}
}

// Geocode resolves a place name to the best Nominatim match
func (n *NominatimProvider) Geocode(ctx context.Context, query string) (providers.GeocodeResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return providers.GeocodeResult{}, apperrors.NewValidationError("place name is required")
	}

	key := cache.Key(geocodeCachePrefix+"nominatim:", trimmed)
	var cached cachedResult
	if cache.GetJSON(ctx, n.cache, key, &cached) {
		return cached.result(), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return providers.GeocodeResult{}, err
	}

	params := url.Values{}
	params.Set("q", trimmed)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return providers.GeocodeResult{}, fmt.Errorf("failed to build nominatim request: %w", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return providers.GeocodeResult{}, apperrors.NewExternalError("nominatim request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providers.GeocodeResult{}, apperrors.NewExternalError(fmt.Sprintf("nominatim returned status %d", resp.StatusCode), nil)
	}

	var payload []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return providers.GeocodeResult{}, apperrors.NewExternalError("failed to decode nominatim response", err)
	}

	res := providers.NotFound()
	if len(payload) > 0 {
		place, err := payload[0].toPlace(trimmed)
		if err != nil {
			return providers.GeocodeResult{}, apperrors.NewExternalError("malformed nominatim result", err)
		}
		res = providers.Found(place)
	}

	cache.SetJSON(ctx, n.cache, key, newCachedResult(res), n.cacheTTL)
	return res, nil
}

type nominatimPlace struct {
	OSMType     string   `json:"osm_type"`
	OSMID       int64    `json:"osm_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
}

func (p nominatimPlace) toPlace(query string) (*entities.ResolvedPlace, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon %q: %w", p.Lon, err)
	}

	name := p.Name
	if name == "" {
		name, _, _ = strings.Cut(p.DisplayName, ",")
	}
	if name == "" {
		name = query
	}

	place := &entities.ResolvedPlace{
		Name:     name,
		Address:  p.DisplayName,
		Location: entities.Coordinates{Latitude: lat, Longitude: lon},
	}
	if p.OSMType != "" && p.OSMID != 0 {
		place.PlaceID = fmt.Sprintf("osm:%s:%d", p.OSMType, p.OSMID)
	}

	// boundingbox is [south, north, west, east]
	if len(p.BoundingBox) == 4 {
		var box [4]float64
		ok := true
		for i, s := range p.BoundingBox {
			if box[i], err = strconv.ParseFloat(s, 64); err != nil {
				ok = false
				break
			}
		}
		if ok {
			place.Viewport = &entities.Bounds{South: box[0], North: box[1], West: box[2], East: box[3]}
		}
	}
	return place, nil
}
