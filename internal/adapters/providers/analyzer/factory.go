package analyzer

import (
	"context"
	"time"

	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/rs/zerolog/log"
)

const defaultAnalysisCacheTTL = 6 * time.Hour

// NewProvider builds the query analyzer: Gemini backed by the rule-based
// analyzer when an API key is configured, the rule-based analyzer alone
// otherwise.
func NewProvider(ctx context.Context, cfg config.GeminiConfig, cache providers.CacheProvider) providers.QueryAnalyzer {
	rules := NewRuleAnalyzer()
	if cfg.APIKey == "" {
		log.Info().Msg("GEMINI_API_KEY not set, using rule-based query analysis")
		return rules
	}

	gemini, err := NewGeminiAnalyzer(ctx, GeminiOptions{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  cfg.Timeout,
		Cache:    cache,
		CacheTTL: defaultAnalysisCacheTTL,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create Gemini analyzer, using rule-based query analysis")
		return rules
	}
	return NewFallbackAnalyzer(gemini, rules)
}
