package repositories

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// GazetteerRepository defines lookups against the local place gazetteer
type GazetteerRepository interface {
	// Lookup returns the best fuzzy match for term. A miss is reported as a
	// NOT_FOUND AppError.
	Lookup(ctx context.Context, term string) (*entities.GazetteerMatch, error)

	// Nearby returns cities within radiusKm of a point, closest first
	Nearby(ctx context.Context, at entities.Coordinates, radiusKm float64, limit int) ([]entities.GazetteerPlace, error)

	// List pages through every place, for indexing
	List(ctx context.Context, filter GazetteerFilter) ([]entities.GazetteerPlace, error)
}

// GazetteerFilter defines paging for listing gazetteer places
type GazetteerFilter struct {
	Type   string
	Limit  int
	Offset int
}

// PlaceIndex is a typo-tolerant search index over the gazetteer
type PlaceIndex interface {
	// Search returns the best match for term, or a NOT_FOUND AppError
	Search(ctx context.Context, term string) (*entities.GazetteerMatch, error)

	// Upsert writes places into the index
	Upsert(ctx context.Context, places []entities.GazetteerPlace) error
}
