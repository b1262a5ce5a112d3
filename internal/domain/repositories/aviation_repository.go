package repositories

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// AviationRepository looks up airports and direct flights
type AviationRepository interface {
	// NearestAirport returns the airport closest to at. An empty table is a
	// NOT_FOUND AppError.
	NearestAirport(ctx context.Context, at entities.Coordinates) (*entities.Airport, error)

	// FindFlight returns any direct flight from origin to dest, or a NOT_FOUND
	// AppError
	FindFlight(ctx context.Context, origin, dest string) (*entities.Flight, error)
}
