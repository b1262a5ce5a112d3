//go:build integration

package database

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}
	port, err := strconv.Atoi(getEnv("TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	client, err := postgres.NewClient(&config.DatabaseConfig{
		Enabled:  true,
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		Database: getEnv("TEST_DB_NAME", "geosight_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	})
	require.NoError(t, err, "Failed to create postgres client")
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGazetteerAdapter_Integration(t *testing.T) {
	client := newTestPostgresClient(t)
	ctx := context.Background()
	db := client.DB()

	require.NoError(t, EnsureSchema(ctx, db))
	_, err := db.ExecContext(ctx, `TRUNCATE TABLE cities, states, countries RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO countries (country_name, iso_code, population, geom)
		VALUES ('India', 'IN', 1428627663, ST_SetSRID(ST_MakePoint(78.6677, 22.3511), 4326))`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO cities (city_name, country_code, population, alt_names, geom) VALUES
		('Mumbai', 'IN', 21297000, '{Bombay}', ST_SetSRID(ST_MakePoint(72.8777, 19.0760), 4326)),
		('Pune', 'IN', 7166000, '{Poona}', ST_SetSRID(ST_MakePoint(73.8567, 18.5204), 4326)),
		('Lonavala', 'IN', 57000, '{}', ST_SetSRID(ST_MakePoint(73.4062, 18.7546), 4326))`)
	require.NoError(t, err)

	repo := NewGazetteerAdapter(client)

	t.Run("alternate name is an exact match", func(t *testing.T) {
		m, err := repo.Lookup(ctx, "Bombay")
		require.NoError(t, err)
		assert.Equal(t, "Mumbai", m.Place.Name)
		assert.Equal(t, 1.0, m.Score)
		assert.InDelta(t, 19.076, m.Place.Location.Latitude, 1e-3)
	})

	t.Run("typo matches by trigram", func(t *testing.T) {
		m, err := repo.Lookup(ctx, "Mumbay")
		require.NoError(t, err)
		assert.Equal(t, "Mumbai", m.Place.Name)
		assert.Less(t, m.Score, 1.0)
	})

	t.Run("nearby is closest first", func(t *testing.T) {
		places, err := repo.Nearby(ctx, entities.Coordinates{Latitude: 18.5204, Longitude: 73.8567}, 100, 10)
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "Pune", places[0].Name)
		assert.Equal(t, "Lonavala", places[1].Name)
	})

	t.Run("list pages by population", func(t *testing.T) {
		places, err := repo.List(ctx, repositories.GazetteerFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "India", places[0].Name)
		assert.Equal(t, "Mumbai", places[1].Name)
	})

	t.Run("query log round trip", func(t *testing.T) {
		log := NewQueryLogAdapter(client)
		require.NoError(t, log.LogEvent(ctx, &entities.QueryEvent{Query: "Atlantis", Intent: entities.IntentInfo}))

		events, err := log.UnresolvedQueries(ctx, 10)
		require.NoError(t, err)
		require.NotEmpty(t, events)
		assert.Equal(t, "Atlantis", events[0].Query)
	})
}
