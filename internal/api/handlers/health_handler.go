package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthCheck reports whether one backing service answers
type HealthCheck func(ctx context.Context) error

// HealthHandler serves readiness over a set of named checks
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a readiness handler. Checks run concurrently and
// share one timeout.
func NewHealthHandler(checks map[string]HealthCheck, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checks: checks, timeout: timeout}
}

// Ready handles GET /ready. Any failing check turns the response into 503;
// optional services that were never configured are not listed.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		g       errgroup.Group
		results = make(map[string]string, len(h.checks))
		failed  []string
	)
	for name, check := range h.checks {
		g.Go(func() error {
			status := "ok"
			if err := check(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				failed = append(failed, name)
			}
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(failed)

	code, status := http.StatusOK, "ready"
	if len(failed) > 0 {
		code, status = http.StatusServiceUnavailable, "unavailable"
	}
	respondWithJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
		"failed": failed,
	})
}
