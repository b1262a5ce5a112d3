package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/pkg/config"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestRuleAnalyzer(t *testing.T) {
	tests := []struct {
		query     string
		intent    entities.Intent
		locations []string
		radius    float64
	}{
		{"Weather in Chennai and Kolkata", entities.IntentWeather, []string{"Chennai", "Kolkata"}, 0},
		{"Mumbai to Delhi via Pune", entities.IntentRoute, []string{"Mumbai", "Pune", "Delhi"}, 0},
		{"Route From Paris To London", entities.IntentRoute, []string{"Paris", "London"}, 0},
		{"drive from New York to Chicago via Cleveland and Toledo", entities.IntentRoute, []string{"New York", "Cleveland", "Toledo", "Chicago"}, 0},
		{"Cities near Delhi within 120 km", entities.IntentNearby, []string{"Delhi"}, 120},
		{"what is around Jaipur", entities.IntentNearby, []string{"Jaipur"}, providers.DefaultNearbyRadiusKm},
		{"Tell me about Toronto", entities.IntentInfo, []string{"Toronto"}, 0},
		{"compare India and England and India", entities.IntentInfo, []string{"India", "England"}, 0},
		{"hello there", entities.IntentInfo, []string{}, 0},
	}

	a := NewRuleAnalyzer()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := a.Analyze(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.intent, got.Intent)
			assert.Equal(t, tt.locations, got.Locations)
			assert.Equal(t, tt.radius, got.RadiusKm)
			assert.Len(t, got.LocationDetails, len(tt.locations))
		})
	}

	_, err := a.Analyze(context.Background(), "  ")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

type fakeGenerator struct {
	text   string
	err    error
	calls  int
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiAnalyzer_Analyze(t *testing.T) {
	gen := &fakeGenerator{text: `{
		"intent": "route",
		"locations": ["Bengaluru", "Mumbai", " ", "Delhi", "Mumbai"],
		"location_details": {"Bengaluru": {"summary": "Capital of Karnataka.", "answer": ""}},
		"params": {}
	}`}
	g := newGeminiAnalyzer(gen, GeminiOptions{
		Cache:    cache.NewMemoryAdapter(time.Minute, time.Minute),
		CacheTTL: time.Minute,
	})

	got, err := g.Analyze(context.Background(), "route from banglore to delhi via bombay")
	require.NoError(t, err)
	assert.Equal(t, entities.IntentRoute, got.Intent)
	assert.Equal(t, []string{"Bengaluru", "Mumbai", "Delhi"}, got.Locations)
	assert.Equal(t, "Capital of Karnataka.", got.LocationDetails["Bengaluru"].Summary)

	require.NotNil(t, gen.config)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.Equal(t, float32(0.3), *gen.config.Temperature)

	_, err = g.Analyze(context.Background(), "route from banglore to delhi via bombay")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestGeminiAnalyzer_NearbyDefaultsRadius(t *testing.T) {
	g := newGeminiAnalyzer(&fakeGenerator{text: "```json\n{\"intent\":\"NEARBY\",\"locations\":[\"Pune\"]}\n```"}, GeminiOptions{})

	got, err := g.Analyze(context.Background(), "cities near pune")
	require.NoError(t, err)
	assert.Equal(t, entities.IntentNearby, got.Intent)
	assert.Equal(t, float64(providers.DefaultNearbyRadiusKm), got.RadiusKm)
}

func TestGeminiAnalyzer_Errors(t *testing.T) {
	g := newGeminiAnalyzer(&fakeGenerator{err: errors.New("429 resource exhausted")}, GeminiOptions{})
	_, err := g.Analyze(context.Background(), "paris")
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))

	g = newGeminiAnalyzer(&fakeGenerator{text: "not json"}, GeminiOptions{})
	_, err = g.Analyze(context.Background(), "paris")
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))

	_, err = NewGeminiAnalyzer(context.Background(), GeminiOptions{})
	assert.Equal(t, apperrors.ErrorTypeUnavailable, apperrors.TypeOf(err))
}

func TestFallbackAnalyzer(t *testing.T) {
	failing := newGeminiAnalyzer(&fakeGenerator{err: errors.New("quota exceeded")}, GeminiOptions{})
	f := NewFallbackAnalyzer(failing, NewRuleAnalyzer())

	got, err := f.Analyze(context.Background(), "Weather in Oslo")
	require.NoError(t, err)
	assert.Equal(t, entities.IntentWeather, got.Intent)
	assert.Equal(t, []string{"Oslo"}, got.Locations)

	_, err = f.Analyze(context.Background(), "")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))

	got, err = NewFallbackAnalyzer(nil, NewRuleAnalyzer()).Analyze(context.Background(), "Tell me about Lima")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lima"}, got.Locations)
}

func TestNewProvider_WithoutKeyUsesRules(t *testing.T) {
	a := NewProvider(context.Background(), config.GeminiConfig{}, nil)

	_, ok := a.(*RuleAnalyzer)
	assert.True(t, ok)
}
