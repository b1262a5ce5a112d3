package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/google/uuid"
)

const queryEventsTable = "query_events"

// QueryLogAdapter implements QueryLogRepository on PostgreSQL
type QueryLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewQueryLogAdapter creates a new query log adapter
func NewQueryLogAdapter(client *postgres.Client) repositories.QueryLogRepository {
	return &QueryLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *QueryLogAdapter) LogEvent(ctx context.Context, event *entities.QueryEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query, args, err := a.db.Insert(queryEventsTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":           event.ID,
			"query":        event.Query,
			"intent":       string(event.Intent),
			"result_count": event.ResultCount,
			"unresolved":   event.Unresolved,
			"latency_ms":   event.LatencyMs,
			"created_at":   event.CreatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query event insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log query event", err)
	}
	return nil
}

func (a *QueryLogAdapter) UnresolvedQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.From(queryEventsTable).
		Prepared(true).
		Select("id", "query", "intent", "result_count", "unresolved", "latency_ms", "created_at").
		Where(goqu.Or(
			goqu.C("result_count").Eq(0),
			goqu.C("unresolved").Gt(0),
		)).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build unresolved query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get unresolved queries", err)
	}
	defer rows.Close()

	var events []*entities.QueryEvent
	for rows.Next() {
		e := &entities.QueryEvent{}
		var intent string
		if err := rows.Scan(&e.ID, &e.Query, &intent, &e.ResultCount, &e.Unresolved, &e.LatencyMs, &e.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan query event", err)
		}
		e.Intent = entities.Intent(intent)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read query events", err)
	}

	return events, nil
}
