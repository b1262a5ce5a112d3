package providers

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// DefaultNearbyRadiusKm is used when a NEARBY query names no radius
const DefaultNearbyRadiusKm = 50

// LocationDetail is per-place text produced while analysing a query
type LocationDetail struct {
	Summary string `json:"summary"`
	Answer  string `json:"answer"`
}

// QueryAnalysis is the structured reading of a free-form query
type QueryAnalysis struct {
	Intent          entities.Intent           `json:"intent"`
	Locations       []string                  `json:"locations"`
	LocationDetails map[string]LocationDetail `json:"location_details,omitempty"`
	RadiusKm        float64                   `json:"radius_km,omitempty"`
}

// QueryAnalyzer extracts intent and ordered place names from a query
type QueryAnalyzer interface {
	Analyze(ctx context.Context, query string) (*QueryAnalysis, error)
}
