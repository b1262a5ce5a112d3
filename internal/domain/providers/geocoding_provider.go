package providers

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// GeocodeStatus is the outcome of a geocoding lookup
type GeocodeStatus string

const (
	GeocodeStatusOK       GeocodeStatus = "OK"
	GeocodeStatusNotFound GeocodeStatus = "NOT_FOUND"
)

// GeocodeResult carries either a place (OK) or nothing (NOT_FOUND).
// Transport and service failures are reported as errors instead.
type GeocodeResult struct {
	Status GeocodeStatus
	Place  *entities.ResolvedPlace
}

// Found wraps a geocoded place
func Found(place *entities.ResolvedPlace) GeocodeResult {
	return GeocodeResult{Status: GeocodeStatusOK, Place: place}
}

// NotFound is the result of a lookup with no match
func NotFound() GeocodeResult {
	return GeocodeResult{Status: GeocodeStatusNotFound}
}

// OK reports whether the lookup produced a place
func (r GeocodeResult) OK() bool {
	return r.Status == GeocodeStatusOK && r.Place != nil
}

// GeocodingProvider turns free-form place names into coordinates
type GeocodingProvider interface {
	// Geocode resolves a place name
	Geocode(ctx context.Context, query string) (GeocodeResult, error)
}
