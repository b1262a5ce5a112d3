package services

import (
	"context"
	"math"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/geo"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MinFlightDistanceKm is the straight-line distance below which a trip is
// driven end to end
const MinFlightDistanceKm = 500.0

// TripPlanner plans drive-fly-drive trips between two points
type TripPlanner interface {
	// Plan returns (nil, nil) when no multimodal trip applies
	Plan(ctx context.Context, from, to entities.Coordinates) (*entities.MultimodalRoute, error)
}

// TripPlannerService pairs the airports nearest to each end of a trip with a
// direct flight between them
type TripPlannerService struct {
	aviation repositories.AviationRepository
}

var _ TripPlanner = (*TripPlannerService)(nil)

// NewTripPlannerService creates a new trip planner
func NewTripPlannerService(aviation repositories.AviationRepository) *TripPlannerService {
	return &TripPlannerService{aviation: aviation}
}

// Plan skips short trips, trips whose ends share an airport and airport
// pairs with no direct flight
func (s *TripPlannerService) Plan(ctx context.Context, from, to entities.Coordinates) (*entities.MultimodalRoute, error) {
	totalKm := geo.HaversineKm(from, to)
	if totalKm < MinFlightDistanceKm {
		log.Debug().Float64("distance_km", totalKm).Msg("Trip too short for a flight")
		return nil, nil
	}

	var origin, dest *entities.Airport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		origin, err = s.aviation.NearestAirport(gctx, from)
		return err
	})
	g.Go(func() error {
		var err error
		dest, err = s.aviation.NearestAirport(gctx, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, ignoreNotFound(err)
	}
	if origin.IATA == dest.IATA {
		return nil, nil
	}

	flight, err := s.aviation.FindFlight(ctx, origin.IATA, dest.IATA)
	if err != nil {
		if apperrors.TypeOf(err) == apperrors.ErrorTypeNotFound {
			log.Debug().Str("origin", origin.IATA).Str("dest", dest.IATA).Msg("No direct flight")
		}
		return nil, ignoreNotFound(err)
	}

	return entities.NewDriveFlyDrive(from, to, *origin, *dest, *flight, math.Round(totalKm*10)/10), nil
}

func ignoreNotFound(err error) error {
	if apperrors.TypeOf(err) == apperrors.ErrorTypeNotFound {
		return nil
	}
	return err
}
