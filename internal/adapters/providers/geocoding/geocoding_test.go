package geocoding_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/adapters/providers/geocoding"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/pkg/config"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleParisResponse = `{
  "status": "OK",
  "results": [{
    "place_id": "ChIJD7fiBh9u5kcRYJSMaMOCCwQ",
    "formatted_address": "Paris, France",
    "address_components": [{"long_name": "Paris", "types": ["locality", "political"]}],
    "geometry": {
      "location": {"lat": 48.856614, "lng": 2.3522219},
      "viewport": {
        "northeast": {"lat": 48.9021449, "lng": 2.4699208},
        "southwest": {"lat": 48.815573, "lng": 2.224199}
      }
    }
  }]
}`

func TestGoogleProvider_Geocode(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		switch r.URL.Query().Get("address") {
		case "Paris":
			_, _ = w.Write([]byte(googleParisResponse))
		case "Atlantis":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key"}`))
		}
	}))
	defer server.Close()

	c := cache.NewMemoryAdapter(time.Minute, time.Minute)
	g := geocoding.NewGoogleProviderWithOptions("test-key", c, time.Hour, server.URL, server.Client())
	ctx := context.Background()

	res, err := g.Geocode(ctx, " Paris ")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "Paris", res.Place.Name)
	assert.Equal(t, "ChIJD7fiBh9u5kcRYJSMaMOCCwQ", res.Place.PlaceID)
	assert.Equal(t, entities.Coordinates{Latitude: 48.856614, Longitude: 2.3522219}, res.Place.Location)
	require.NotNil(t, res.Place.Viewport)
	assert.Equal(t, 48.9021449, res.Place.Viewport.North)
	assert.Equal(t, 2.224199, res.Place.Viewport.West)

	// cached
	res, err = g.Geocode(ctx, "paris")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	res, err = g.Geocode(ctx, "Atlantis")
	require.NoError(t, err)
	assert.Equal(t, providers.GeocodeStatusNotFound, res.Status)

	_, err = g.Geocode(ctx, "Denied")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestGoogleProvider_RequiresKey(t *testing.T) {
	g := geocoding.NewGoogleProvider("", nil, 0)
	_, err := g.Geocode(context.Background(), "Paris")
	assert.Equal(t, apperrors.ErrorTypeUnavailable, apperrors.TypeOf(err))
}

func TestNominatimProvider_Geocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "geosight-test", r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") != "Berlin" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{
			"osm_type": "relation", "osm_id": 62422,
			"lat": "52.5173885", "lon": "13.3951309",
			"name": "Berlin", "display_name": "Berlin, Deutschland",
			"boundingbox": ["52.3382448", "52.6755087", "13.0883450", "13.7611609"]
		}]`))
	}))
	defer server.Close()

	n := geocoding.NewNominatimProvider(geocoding.NominatimOptions{
		BaseURL:    server.URL + "/",
		UserAgent:  "geosight-test",
		HTTPClient: server.Client(),
	})

	res, err := n.Geocode(context.Background(), "Berlin")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "osm:relation:62422", res.Place.PlaceID)
	assert.Equal(t, 52.5173885, res.Place.Location.Latitude)
	assert.Equal(t, &entities.Bounds{South: 52.3382448, North: 52.6755087, West: 13.088345, East: 13.7611609}, res.Place.Viewport)

	res, err = n.Geocode(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.False(t, res.OK())
}

func TestNominatimProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := geocoding.NewNominatimProvider(geocoding.NominatimOptions{BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := n.Geocode(context.Background(), "Berlin")
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestMockProvider(t *testing.T) {
	m := geocoding.NewMockProvider()

	res, err := m.Geocode(context.Background(), "new york")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "New York", res.Place.Name)
	assert.Equal(t, "mock:new-york", res.Place.PlaceID)

	res, err = m.Geocode(context.Background(), "Gotham")
	require.NoError(t, err)
	assert.False(t, res.OK())
}

func TestNewProvider(t *testing.T) {
	p, err := geocoding.NewProvider(config.GeocodingConfig{Provider: "nominatim"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &geocoding.NominatimProvider{}, p)

	p, err = geocoding.NewProvider(config.GeocodingConfig{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &geocoding.MockProvider{}, p)

	_, err = geocoding.NewProvider(config.GeocodingConfig{Provider: "bing"}, nil)
	assert.Error(t, err)
}
