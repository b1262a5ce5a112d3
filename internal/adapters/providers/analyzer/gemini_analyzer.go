package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"google.golang.org/genai"
)

const analysisCachePrefix = "analysis:v1:"

const analysisPrompt = `You are a geospatial assistant. Read the user's query and reply with JSON only.

Tasks:
1. intent: one of "WEATHER", "ROUTE", "NEARBY" or "INFO" (anything else).
2. locations: every place mentioned, in the order they are visited or mentioned.
   - Fix typos ("Banglore" -> "Bengaluru") and resolve aliases ("Bombay" -> "Mumbai").
   - When a city is qualified by a region or country, merge them with a comma and apply
     the qualifier only to that city: "Bangalore and Paris in Texas" -> ["Bengaluru", "Paris, Texas"].
   - For routes keep travel order: "from A to B via C" -> ["A", "C", "B"].
3. location_details: for each location a "summary" of 3-4 sentences (capital, population,
   significance) and, when the user asked a specific question about it, the "answer".
4. params.radius_km: the search radius for NEARBY queries when one is given.

Output shape:
{"intent": "INFO", "locations": ["A"], "location_details": {"A": {"summary": "", "answer": ""}}, "params": {"radius_km": 50}}`

// contentGenerator is the part of the genai client the analyzer calls
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer extracts intent, places and per-place summaries with a
// Gemini model in JSON mode.
type GeminiAnalyzer struct {
	models   contentGenerator
	model    string
	timeout  time.Duration
	cache    providers.CacheProvider
	cacheTTL time.Duration
}

// GeminiOptions configures a GeminiAnalyzer
type GeminiOptions struct {
	APIKey   string
	Model    string
	Timeout  time.Duration
	Cache    providers.CacheProvider
	CacheTTL time.Duration
}

// NewGeminiAnalyzer creates an analyzer backed by the Gemini API
func NewGeminiAnalyzer(ctx context.Context, opts GeminiOptions) (*GeminiAnalyzer, error) {
	if opts.APIKey == "" {
		return nil, apperrors.NewUnavailableError("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, opts), nil
}

func newGeminiAnalyzer(models contentGenerator, opts GeminiOptions) *GeminiAnalyzer {
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	return &GeminiAnalyzer{
		models:   models,
		model:    opts.Model,
		timeout:  opts.Timeout,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
}

// Analyze implements QueryAnalyzer
func (g *GeminiAnalyzer) Analyze(ctx context.Context, query string) (*providers.QueryAnalysis, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	key := cache.Key(analysisCachePrefix+g.model+":", query)
	var cached providers.QueryAnalysis
	if cache.GetJSON(ctx, g.cache, key, &cached) {
		return &cached, nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf("User query: %q", query)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(analysisPrompt, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0.3),
		},
	)
	if err != nil {
		return nil, apperrors.NewExternalError("gemini request failed", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewExternalError("gemini returned an empty response", nil)
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return nil, apperrors.NewExternalError("gemini returned malformed json", err)
	}

	cache.SetJSON(ctx, g.cache, key, analysis, g.cacheTTL)
	return analysis, nil
}

type llmAnalysis struct {
	Intent          string                              `json:"intent"`
	Locations       []string                            `json:"locations"`
	LocationDetails map[string]providers.LocationDetail `json:"location_details"`
	Params          llmParams                           `json:"params"`
}

type llmParams struct {
	RadiusKm float64 `json:"radius_km"`
}

func parseAnalysis(text string) (*providers.QueryAnalysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw llmAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, err
	}

	analysis := &providers.QueryAnalysis{
		Intent:          entities.ParseIntent(strings.ToUpper(strings.TrimSpace(raw.Intent))),
		Locations:       dedupe(raw.Locations),
		LocationDetails: raw.LocationDetails,
		RadiusKm:        raw.Params.RadiusKm,
	}
	if analysis.Intent == entities.IntentNearby && analysis.RadiusKm <= 0 {
		analysis.RadiusKm = providers.DefaultNearbyRadiusKm
	}
	return analysis, nil
}

// dedupe trims names and drops blanks and repeats, keeping first occurrences
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
