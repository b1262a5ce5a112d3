package repositories

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// QueryLogRepository stores resolved queries
type QueryLogRepository interface {
	LogEvent(ctx context.Context, event *entities.QueryEvent) error

	// UnresolvedQueries returns the latest queries that produced no results
	// or at least one place the dashboard could not plot
	UnresolvedQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error)
}
