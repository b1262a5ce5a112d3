package entities

import "time"

// QueryEvent records one resolved query for analytics
type QueryEvent struct {
	ID          string    `json:"id" db:"id"`
	Query       string    `json:"query" db:"query"`
	Intent      Intent    `json:"intent" db:"intent"`
	ResultCount int       `json:"result_count" db:"result_count"`
	Unresolved  int       `json:"unresolved" db:"unresolved"` // results the dashboard cannot plot
	LatencyMs   int64     `json:"latency_ms" db:"latency_ms"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewQueryEvent summarises a resolve result
func NewQueryEvent(query string, result *ResolveResult, latency time.Duration) *QueryEvent {
	e := &QueryEvent{
		Query:     query,
		LatencyMs: latency.Milliseconds(),
		CreatedAt: time.Now(),
	}
	if result != nil {
		e.Intent = result.Intent
		e.ResultCount = len(result.Results)
		e.Unresolved = e.ResultCount - len(result.PlottableResults())
	}
	return e
}
