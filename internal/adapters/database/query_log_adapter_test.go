package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryLogAdapter_LogEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewQueryLogAdapter(postgres.NewFromDB(db))

	// goqu orders record columns alphabetically
	mock.ExpectExec(`INSERT INTO "query_events"`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "ROUTE", int64(42), "Delhi to Atlantis", 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event := &entities.QueryEvent{Query: "Delhi to Atlantis", Intent: entities.IntentRoute, ResultCount: 2, Unresolved: 1, LatencyMs: 42}
	require.NoError(t, repo.LogEvent(context.Background(), event))

	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryLogAdapter_LogEventFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewQueryLogAdapter(postgres.NewFromDB(db))

	mock.ExpectExec(`INSERT INTO "query_events"`).WillReturnError(errors.New("relation does not exist"))

	err = repo.LogEvent(context.Background(), &entities.QueryEvent{Query: "Paris"})
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}

func TestQueryLogAdapter_UnresolvedQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewQueryLogAdapter(postgres.NewFromDB(db))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT "id", "query", "intent", "result_count", "unresolved", "latency_ms", "created_at" FROM "query_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "query", "intent", "result_count", "unresolved", "latency_ms", "created_at"}).
			AddRow("e1", "Springfield", "INFO", 1, 1, int64(80), at).
			AddRow("e2", "xyzzy", "INFO", 0, 0, int64(12), at.Add(-time.Minute)))

	events, err := repo.UnresolvedQueries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Springfield", events[0].Query)
	assert.Equal(t, entities.IntentInfo, events[0].Intent)
	assert.Equal(t, 1, events[0].Unresolved)
	assert.Equal(t, at, events[0].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
