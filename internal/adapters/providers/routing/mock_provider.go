package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/geo"
)

const (
	// roadFactor stretches straight-line distance into a plausible road distance
	roadFactor = 1.3

	defaultMaxDrivingLegKm = 3000
	defaultMaxWalkingLegKm = 150
)

var mockSpeedKmh = map[entities.TravelMode]float64{
	entities.TravelModeDriving: 60,
	entities.TravelModeWalking: 5,
}

// MockProvider builds routes from straight-line distances between geocoded
// stops. Legs longer than the mode's limit have no route, which stands in for
// crossing an ocean.
type MockProvider struct {
	geocoder providers.GeocodingProvider
	maxLegKm map[entities.TravelMode]float64
}

// NewMockProvider creates a mock router resolving stops through geocoder
func NewMockProvider(geocoder providers.GeocodingProvider) *MockProvider {
	return &MockProvider{
		geocoder: geocoder,
		maxLegKm: map[entities.TravelMode]float64{
			entities.TravelModeDriving: defaultMaxDrivingLegKm,
			entities.TravelModeWalking: defaultMaxWalkingLegKm,
		},
	}
}

// Route implements RoutingProvider
func (m *MockProvider) Route(ctx context.Context, req entities.RouteRequest) (*entities.Directions, error) {
	speed, ok := mockSpeedKmh[req.Mode]
	if !ok {
		return nil, fmt.Errorf("mode %s is not routable", req.Mode)
	}

	names := make([]string, 0, len(req.Waypoints)+2)
	names = append(names, req.Origin)
	names = append(names, req.Waypoints...)
	names = append(names, req.Destination)

	stops := make([]entities.ResolvedPlace, len(names))
	for i, name := range names {
		res, err := m.geocoder.Geocode(ctx, name)
		if err != nil {
			return nil, err
		}
		if !res.OK() {
			return nil, providers.ErrNoRoute
		}
		stops[i] = *res.Place
	}

	d := &entities.Directions{Mode: req.Mode, Legs: make([]entities.RouteLeg, 0, len(stops)-1)}
	var bounds entities.BoundsBuilder
	bounds.AddPoint(stops[0].Location)
	for i := 1; i < len(stops); i++ {
		from, to := stops[i-1], stops[i]
		km := geo.HaversineKm(from.Location, to.Location) * roadFactor
		if km > m.maxLegKm[req.Mode] {
			return nil, providers.ErrNoRoute
		}
		d.Legs = append(d.Legs, entities.RouteLeg{
			StartAddress:    from.Name,
			EndAddress:      to.Name,
			Start:           from.Location,
			End:             to.Location,
			DistanceMeters:  int(math.Round(km * 1000)),
			DurationSeconds: int(math.Round(km / speed * 3600)),
		})
		bounds.AddPoint(to.Location)
	}
	if b, ok := bounds.Bounds(); ok {
		d.Bounds = &b
	}
	return d, nil
}
