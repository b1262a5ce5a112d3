package services

import (
	"context"
	"sync"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/rs/zerolog/log"
)

const trackTimeout = 5 * time.Second

// QueryTracker receives one event per resolved query
type QueryTracker interface {
	TrackQuery(event *entities.QueryEvent)
}

// QueryAnalyticsService logs resolved queries without blocking the request
// that produced them.
type QueryAnalyticsService struct {
	repo repositories.QueryLogRepository
	wg   sync.WaitGroup
}

func NewQueryAnalyticsService(repo repositories.QueryLogRepository) *QueryAnalyticsService {
	return &QueryAnalyticsService{repo: repo}
}

// TrackQuery writes the event in the background. The request context is not
// used since it ends with the response.
func (s *QueryAnalyticsService) TrackQuery(event *entities.QueryEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()

		if err := s.repo.LogEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("query", event.Query).Msg("Failed to log query event")
		}
	}()
}

// Wait blocks until pending writes finish
func (s *QueryAnalyticsService) Wait() {
	s.wg.Wait()
}

func (s *QueryAnalyticsService) UnresolvedQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	return s.repo.UnresolvedQueries(ctx, limit)
}
