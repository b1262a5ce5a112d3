package geocoding

import (
	"context"
	"strings"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
)

// MockProvider resolves a fixed set of well-known cities. Used for local
// development and tests when no geocoding backend is configured.
type MockProvider struct {
	places map[string]entities.ResolvedPlace
}

// NewMockProvider creates a new mock geocoder
func NewMockProvider() *MockProvider {
	places := make(map[string]entities.ResolvedPlace, len(mockCities))
	for _, c := range mockCities {
		p := entities.ResolvedPlace{
			Name:     c.name,
			PlaceID:  "mock:" + strings.ReplaceAll(strings.ToLower(c.name), " ", "-"),
			Address:  c.name + ", " + c.country,
			Location: entities.Coordinates{Latitude: c.lat, Longitude: c.lon},
			Viewport: &entities.Bounds{
				North: c.lat + mockViewportDeg,
				South: c.lat - mockViewportDeg,
				East:  c.lon + mockViewportDeg,
				West:  c.lon - mockViewportDeg,
			},
		}
		places[strings.ToLower(c.name)] = p
	}
	return &MockProvider{places: places}
}

// Geocode matches the query case-insensitively against the known cities
func (m *MockProvider) Geocode(_ context.Context, query string) (providers.GeocodeResult, error) {
	p, ok := m.places[strings.ToLower(strings.TrimSpace(query))]
	if !ok {
		return providers.NotFound(), nil
	}
	return providers.Found(&p), nil
}

const mockViewportDeg = 0.15

var mockCities = []struct {
	name     string
	country  string
	lat, lon float64
}{
	{"New York", "USA", 40.7128, -74.0060},
	{"Los Angeles", "USA", 34.0522, -118.2437},
	{"Chicago", "USA", 41.8781, -87.6298},
	{"Houston", "USA", 29.7604, -95.3698},
	{"San Francisco", "USA", 37.7749, -122.4194},
	{"London", "UK", 51.5074, -0.1278},
	{"Paris", "France", 48.8566, 2.3522},
	{"Berlin", "Germany", 52.5200, 13.4050},
	{"Rome", "Italy", 41.9028, 12.4964},
	{"Madrid", "Spain", 40.4168, -3.7038},
	{"Delhi", "India", 28.6139, 77.2090},
	{"Mumbai", "India", 19.0760, 72.8777},
	{"Pune", "India", 18.5204, 73.8567},
	{"Jaipur", "India", 26.9124, 75.7873},
	{"Bangalore", "India", 12.9716, 77.5946},
	{"Chennai", "India", 13.0827, 80.2707},
	{"Kolkata", "India", 22.5726, 88.3639},
	{"Tokyo", "Japan", 35.6762, 139.6503},
	{"Sydney", "Australia", -33.8688, 151.2093},
	{"Lagos", "Nigeria", 6.5244, 3.3792},
	{"Abuja", "Nigeria", 9.0765, 7.3986},
}
