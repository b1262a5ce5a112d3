package analyzer

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FallbackAnalyzer answers from primary and switches to secondary whenever
// primary fails, e.g. on LLM quota exhaustion.
type FallbackAnalyzer struct {
	primary   providers.QueryAnalyzer
	secondary providers.QueryAnalyzer
}

// NewFallbackAnalyzer chains two analyzers. A nil primary always uses secondary.
func NewFallbackAnalyzer(primary, secondary providers.QueryAnalyzer) *FallbackAnalyzer {
	return &FallbackAnalyzer{primary: primary, secondary: secondary}
}

// Analyze implements QueryAnalyzer
func (f *FallbackAnalyzer) Analyze(ctx context.Context, query string) (*providers.QueryAnalysis, error) {
	if f.primary == nil {
		return f.secondary.Analyze(ctx, query)
	}

	analysis, err := f.primary.Analyze(ctx, query)
	if err == nil {
		return analysis, nil
	}
	if apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
		return nil, err
	}

	log.Warn().Err(err).Msg("Query analysis failed, using rule-based fallback")
	return f.secondary.Analyze(ctx, query)
}
