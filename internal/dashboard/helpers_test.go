package dashboard_test

import (
	"context"
	"math"
	"sync"

	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/geo"
	"github.com/stretchr/testify/mock"
)

type dispatchFunc func(ctx context.Context, query string) (*entities.ResolveResult, error)

func (f dispatchFunc) Resolve(ctx context.Context, query string) (*entities.ResolveResult, error) {
	return f(ctx, query)
}

func staticDispatcher(result *entities.ResolveResult) dispatchFunc {
	return func(context.Context, string) (*entities.ResolveResult, error) {
		return result, nil
	}
}

type fakeGeocoder struct {
	mu     sync.Mutex
	places map[string]entities.ResolvedPlace
	errs   map[string]error
	calls  []string
}

func newFakeGeocoder(places ...entities.ResolvedPlace) *fakeGeocoder {
	g := &fakeGeocoder{
		places: make(map[string]entities.ResolvedPlace),
		errs:   make(map[string]error),
	}
	for _, p := range places {
		g.places[p.Name] = p
	}
	return g
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (providers.GeocodeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, query)

	if err, ok := g.errs[query]; ok {
		return providers.GeocodeResult{}, err
	}
	p, ok := g.places[query]
	if !ok {
		return providers.NotFound(), nil
	}
	return providers.Found(&p), nil
}

func (g *fakeGeocoder) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.calls))
	copy(out, g.calls)
	return out
}

type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Route(ctx context.Context, req entities.RouteRequest) (*entities.Directions, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Directions), args.Error(1)
}

type fakeWeather struct {
	current *entities.CurrentWeather
	aqi     *entities.AirQuality
	err     error
}

func (w *fakeWeather) CurrentWeather(context.Context, entities.Coordinates) (*entities.CurrentWeather, error) {
	return w.current, w.err
}

func (w *fakeWeather) RainfallHistory(context.Context, entities.Coordinates, int) (*entities.RainfallHistory, error) {
	return nil, w.err
}

func (w *fakeWeather) AirQuality(context.Context, entities.Coordinates) (*entities.AirQuality, error) {
	return w.aqi, w.err
}

func place(id, name string, lat, lon float64) entities.ResolvedPlace {
	return entities.ResolvedPlace{
		Name:     name,
		PlaceID:  id,
		Location: entities.Coordinates{Latitude: lat, Longitude: lon},
	}
}

func withViewport(p entities.ResolvedPlace, north, south, east, west float64) entities.ResolvedPlace {
	p.Viewport = &entities.Bounds{North: north, South: south, East: east, West: west}
	return p
}

// equatorPlace sits on the equator km kilometres east of 0,0
func equatorPlace(id, name string, km float64) entities.ResolvedPlace {
	return place(id, name, 0, km/(geo.EarthRadiusKm*math.Pi/180))
}

func result(name string) entities.PlaceResult {
	return entities.PlaceResult{Token: name, CityName: name, Status: entities.PlaceStatusResolved}
}

func newTestCoordinator(dispatcher providers.QueryDispatcher, geocoder providers.GeocodingProvider, router providers.RoutingProvider, weather providers.WeatherProvider) (*dashboard.Coordinator, *dashboard.Scene) {
	scene := dashboard.NewScene("test-session", nil)
	c := dashboard.NewCoordinator(scene, dashboard.Deps{
		SessionID:          "test-session",
		Dispatcher:         dispatcher,
		Geocoder:           geocoder,
		Router:             router,
		Weather:            weather,
		GeocodeConcurrency: 4,
	})
	return c, scene
}
