package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGoldenQueries_ValidFile(t *testing.T) {
	content := `[
		{"id": "r1", "query": "Delhi to Mumbai", "intent": "ROUTE", "expected_locations": ["Delhi", "Mumbai"], "ordered": true, "difficulty": "easy"},
		{"id": "w1", "query": "weather in chennai", "intent": "WEATHER", "expected_locations": ["Chennai"], "difficulty": "easy"}
	]`
	path := writeTempFile(t, content)

	queries, err := LoadGoldenQueries(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "r1", queries[0].ID)
	assert.Equal(t, entities.IntentRoute, queries[0].Intent)
	assert.True(t, queries[0].Ordered)
	assert.Equal(t, []string{"Delhi", "Mumbai"}, queries[0].ExpectedLocations)
	assert.Equal(t, entities.IntentWeather, queries[1].Intent)
	assert.False(t, queries[1].Ordered)
}

func TestLoadGoldenQueries_Errors(t *testing.T) {
	_, err := LoadGoldenQueries("/nonexistent/path.json")
	assert.Error(t, err)

	_, err = LoadGoldenQueries(writeTempFile(t, `not valid json`))
	assert.Error(t, err)

	queries, err := LoadGoldenQueries(writeTempFile(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestValidateGoldenQueries(t *testing.T) {
	valid := GoldenQuery{ID: "q1", Query: "Paris", Intent: entities.IntentInfo, ExpectedLocations: []string{"Paris"}, Difficulty: "easy"}

	tests := []struct {
		name    string
		mutate  func(q *GoldenQuery)
		wantErr bool
	}{
		{"valid", func(q *GoldenQuery) {}, false},
		{"missing id", func(q *GoldenQuery) { q.ID = "" }, true},
		{"missing query", func(q *GoldenQuery) { q.Query = "" }, true},
		{"unknown intent", func(q *GoldenQuery) { q.Intent = "FLIGHT" }, true},
		{"lowercase intent", func(q *GoldenQuery) { q.Intent = "info" }, true},
		{"no locations", func(q *GoldenQuery) { q.ExpectedLocations = nil }, true},
		{"route with one stop", func(q *GoldenQuery) { q.Intent = entities.IntentRoute }, true},
		{"bad difficulty", func(q *GoldenQuery) { q.Difficulty = "impossible" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)
			err := ValidateGoldenQueries([]GoldenQuery{q})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("duplicate ids", func(t *testing.T) {
		assert.Error(t, ValidateGoldenQueries([]GoldenQuery{valid, valid}))
	})
}

func TestShippedGoldenQueriesAreValid(t *testing.T) {
	queries, err := LoadGoldenQueries(filepath.Join("..", "..", "config", "golden_queries.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, queries)
	assert.NoError(t, ValidateGoldenQueries(queries))
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
