package routing_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geosight/dashboard/internal/adapters/providers/geocoding"
	"github.com/geosight/dashboard/internal/adapters/providers/routing"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directionsOK = `{
  "status": "OK",
  "routes": [{
    "summary": "NH48",
    "overview_polyline": {"points": "abc"},
    "bounds": {"northeast": {"lat": 19.1, "lng": 73.9}, "southwest": {"lat": 18.5, "lng": 72.8}},
    "legs": [
      {"start_address": "Mumbai", "end_address": "Lonavala", "distance": {"value": 83000}, "duration": {"value": 5400},
       "start_location": {"lat": 19.07, "lng": 72.87}, "end_location": {"lat": 18.75, "lng": 73.4}},
      {"start_address": "Lonavala", "end_address": "Pune", "distance": {"value": 67000}, "duration": {"value": 3600},
       "start_location": {"lat": 18.75, "lng": 73.4}, "end_location": {"lat": 18.52, "lng": 73.85}}
    ]
  }]
}`

func TestGoogleProvider_Route(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Mumbai", q.Get("origin"))
		assert.Equal(t, "Pune", q.Get("destination"))
		assert.Equal(t, "driving", q.Get("mode"))
		assert.Equal(t, "Lonavala", q.Get("waypoints"))
		assert.NotContains(t, q.Get("waypoints"), "optimize")
		_, _ = w.Write([]byte(directionsOK))
	}))
	defer server.Close()

	g := routing.NewGoogleProviderWithOptions("key", nil, 0, server.URL, server.Client())
	d, err := g.Route(context.Background(), entities.RouteRequest{
		Origin:      "Mumbai",
		Destination: "Pune",
		Waypoints:   []string{"Lonavala"},
		Mode:        entities.TravelModeDriving,
	})
	require.NoError(t, err)

	require.Len(t, d.Legs, 2)
	assert.Equal(t, 150000, d.TotalDistanceMeters())
	assert.Equal(t, 9000, d.TotalDurationSeconds())
	assert.Equal(t, "abc", d.OverviewPolyline)
	assert.Equal(t, &entities.Bounds{North: 19.1, South: 18.5, East: 73.9, West: 72.8}, d.Bounds)
	assert.Equal(t, entities.Coordinates{Latitude: 18.75, Longitude: 73.4}, d.Legs[0].End)
}

func TestGoogleProvider_WaypointsKeepOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "C|A|B", r.URL.Query().Get("waypoints"))
		assert.Equal(t, "walking", r.URL.Query().Get("mode"))
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","routes":[]}`))
	}))
	defer server.Close()

	g := routing.NewGoogleProviderWithOptions("key", nil, 0, server.URL, server.Client())
	_, err := g.Route(context.Background(), entities.RouteRequest{
		Origin:      "O",
		Destination: "D",
		Waypoints:   []string{"C", "A", "B"},
		Mode:        entities.TravelModeWalking,
	})
	assert.ErrorIs(t, err, providers.ErrNoRoute)
}

func TestGoogleProvider_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OVER_QUERY_LIMIT","error_message":"slow down"}`))
	}))
	defer server.Close()

	g := routing.NewGoogleProviderWithOptions("key", nil, 0, server.URL, server.Client())
	_, err := g.Route(context.Background(), entities.RouteRequest{Origin: "A", Destination: "B", Mode: entities.TravelModeDriving})
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrNoRoute)
	assert.True(t, strings.Contains(err.Error(), "OVER_QUERY_LIMIT"))

	_, err = g.Route(context.Background(), entities.RouteRequest{Origin: "A", Destination: "B", Mode: entities.TravelModeAir})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestGoogleProvider_UnknownStopIsNotANoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_FOUND","geocoded_waypoints":[{"geocoder_status":"ZERO_RESULTS"}],"routes":[]}`))
	}))
	defer server.Close()

	g := routing.NewGoogleProviderWithOptions("key", nil, 0, server.URL, server.Client())
	_, err := g.Route(context.Background(), entities.RouteRequest{Origin: "Atlantis", Destination: "Pune", Mode: entities.TravelModeDriving})
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrNoRoute)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
}

func TestMockProvider_Route(t *testing.T) {
	m := routing.NewMockProvider(geocoding.NewMockProvider())
	ctx := context.Background()

	d, err := m.Route(ctx, entities.RouteRequest{
		Origin:      "Mumbai",
		Destination: "Delhi",
		Waypoints:   []string{"Pune", "Jaipur"},
		Mode:        entities.TravelModeDriving,
	})
	require.NoError(t, err)
	require.Len(t, d.Legs, 3)
	assert.Equal(t, "Mumbai", d.Legs[0].StartAddress)
	assert.Equal(t, "Pune", d.Legs[0].EndAddress)
	assert.Equal(t, "Jaipur", d.Legs[2].StartAddress)
	assert.Equal(t, "Delhi", d.Legs[2].EndAddress)
	require.NotNil(t, d.Bounds)

	_, err = m.Route(ctx, entities.RouteRequest{Origin: "London", Destination: "New York", Mode: entities.TravelModeDriving})
	assert.ErrorIs(t, err, providers.ErrNoRoute)

	_, err = m.Route(ctx, entities.RouteRequest{Origin: "Mumbai", Destination: "Delhi", Mode: entities.TravelModeWalking})
	assert.ErrorIs(t, err, providers.ErrNoRoute)

	_, err = m.Route(ctx, entities.RouteRequest{Origin: "Mumbai", Destination: "Gotham", Mode: entities.TravelModeDriving})
	assert.ErrorIs(t, err, providers.ErrNoRoute)
}
