package evaluation

import (
	"context"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

// recallDepth bounds how many resolved places count towards recall
const recallDepth = 10

// Runner replays golden queries against a dispatcher.
type Runner struct {
	dispatcher providers.QueryDispatcher
}

func NewRunner(dispatcher providers.QueryDispatcher) *Runner {
	return &Runner{dispatcher: dispatcher}
}

// Run evaluates every query in order. A failed dispatch is recorded as an
// error result and scores zero; only context cancellation stops the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByIntent:     make(map[entities.Intent]*IntentSummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := r.evaluate(ctx, gq)
		summary.Results = append(summary.Results, res)
		r.updateSummary(summary, gq, res)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) evaluate(ctx context.Context, gq GoldenQuery) EvalResult {
	res := EvalResult{
		QueryID:        gq.ID,
		Query:          gq.Query,
		ExpectedIntent: gq.Intent,
	}

	start := time.Now()
	out, err := r.dispatcher.Resolve(ctx, gq.Query)
	res.Latency = time.Since(start)
	if err != nil {
		log.Warn().Err(err).Str("query_id", gq.ID).Msg("Golden query failed")
		res.Error = err.Error()
		return res
	}

	// only places the dashboard would draw count as resolved
	for _, p := range out.PlottableResults() {
		res.Resolved = append(res.Resolved, p.Name())
	}
	res.Intent = out.Intent
	res.IntentCorrect = out.Intent == gq.Intent
	res.LocationRecall = RecallAtK(gq.ExpectedLocations, res.Resolved, recallDepth)
	res.FirstHitRR = MRRAtK(gq.ExpectedLocations, res.Resolved, recallDepth)
	res.OrderCorrect = OrderPreserved(gq.ExpectedLocations, res.Resolved)
	return res
}

func (r *Runner) updateSummary(s *EvalSummary, gq GoldenQuery, res EvalResult) {
	if res.Error != "" {
		s.Errors++
	}
	if res.IntentCorrect {
		s.IntentAccuracy++
	}
	s.AvgLocationRecall += res.LocationRecall
	s.AvgFirstHitRR += res.FirstHitRR
	s.AvgLatency += res.Latency
	if gq.Ordered {
		s.OrderedQueries++
		if res.OrderCorrect {
			s.OrderAccuracy++
		}
	}

	is, ok := s.ByIntent[gq.Intent]
	if !ok {
		is = &IntentSummary{}
		s.ByIntent[gq.Intent] = is
	}
	is.Count++
	if res.IntentCorrect {
		is.IntentAccuracy++
	}
	is.AvgLocationRecall += res.LocationRecall
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.IntentAccuracy /= n
		s.AvgLocationRecall /= n
		s.AvgFirstHitRR /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	if s.OrderedQueries > 0 {
		s.OrderAccuracy /= float64(s.OrderedQueries)
	}

	for _, is := range s.ByIntent {
		if is.Count > 0 {
			n := float64(is.Count)
			is.IntentAccuracy /= n
			is.AvgLocationRecall /= n
		}
	}
}
