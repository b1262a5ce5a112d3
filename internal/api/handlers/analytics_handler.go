package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/geosight/dashboard/internal/domain/entities"
)

const maxUnresolvedLimit = 500

// UnresolvedQueryLister is implemented by QueryAnalyticsService
type UnresolvedQueryLister interface {
	UnresolvedQueries(ctx context.Context, limit int) ([]*entities.QueryEvent, error)
}

// AnalyticsHandler exposes the query log
type AnalyticsHandler struct {
	analytics UnresolvedQueryLister
}

func NewAnalyticsHandler(analytics UnresolvedQueryLister) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// UnresolvedQueries handles GET /api/analytics/unresolved?limit=N
func (h *AnalyticsHandler) UnresolvedQueries(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxUnresolvedLimit)
	}

	events, err := h.analytics.UnresolvedQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if events == nil {
		events = []*entities.QueryEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}
