package providers

import (
	"context"
	"errors"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// ErrNoRoute is returned when the provider answered but no ground route
// connects the requested stops.
var ErrNoRoute = errors.New("no route found")

// RoutingProvider computes ground routes through ordered stops. Providers
// must visit waypoints in the order given.
type RoutingProvider interface {
	Route(ctx context.Context, req entities.RouteRequest) (*entities.Directions, error)
}
