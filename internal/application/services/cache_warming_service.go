package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultWarmPlaces are geocoded when no gazetteer is configured
var DefaultWarmPlaces = []string{
	"Delhi", "Mumbai", "Bangalore", "Chennai", "Kolkata", "Pune", "Jaipur",
	"London", "Paris", "Berlin", "Rome", "Madrid",
	"New York", "Los Angeles", "Chicago", "San Francisco", "Tokyo", "Sydney",
}

const warmConcurrency = 4

// CacheWarmingService pre-geocodes the most populous places so the first
// dashboards served after a deploy hit a warm geocode cache. It relies on
// the geocoder being the caching provider built by geocoding.NewProvider.
type CacheWarmingService struct {
	geocoder  providers.GeocodingProvider
	gazetteer repositories.GazetteerRepository
	limit     int
}

// NewCacheWarmingService creates a new cache warming service. gazetteer
// may be nil.
func NewCacheWarmingService(geocoder providers.GeocodingProvider, gazetteer repositories.GazetteerRepository, limit int) *CacheWarmingService {
	if limit <= 0 {
		limit = 50
	}
	return &CacheWarmingService{geocoder: geocoder, gazetteer: gazetteer, limit: limit}
}

// WarmCache geocodes the warm set and returns how many places were found
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	names, err := s.places(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	var found atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for _, name := range names {
		g.Go(func() error {
			res, err := s.geocoder.Geocode(gctx, name)
			if err != nil {
				log.Debug().Err(err).Str("place", name).Msg("Warm geocode failed")
				return gctx.Err()
			}
			if res.OK() {
				found.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(found.Load()), err
	}

	log.Info().
		Int("places", len(names)).
		Int64("found", found.Load()).
		Dur("took", time.Since(start)).
		Msg("Geocode cache warmed")
	return int(found.Load()), nil
}

// places lists the largest gazetteer cities, falling back to
// DefaultWarmPlaces when the gazetteer is absent or fails.
func (s *CacheWarmingService) places(ctx context.Context) ([]string, error) {
	if s.gazetteer != nil {
		cities, err := s.gazetteer.List(ctx, repositories.GazetteerFilter{Type: entities.PlaceTypeCity, Limit: s.limit})
		if err == nil && len(cities) > 0 {
			names := make([]string, len(cities))
			for i, c := range cities {
				names[i] = c.Name
			}
			return names, nil
		}
		if err != nil {
			log.Warn().Err(err).Msg("Gazetteer unavailable for cache warming, using defaults")
		}
	}

	names := DefaultWarmPlaces
	if len(names) > s.limit {
		names = names[:s.limit]
	}
	return names, ctx.Err()
}

// StartPeriodicWarming warms once, then again every interval until ctx is
// done. A zero interval warms once.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	go func() {
		if _, err := s.WarmCache(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial cache warming failed")
		}
		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("Stopping cache warming")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
}
