package handlers

import (
	"net/http"

	"github.com/geosight/dashboard/internal/domain/providers"
)

// ResolveHandler serves the query resolution endpoint
type ResolveHandler struct {
	resolver providers.QueryDispatcher
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(resolver providers.QueryDispatcher) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

// Resolve handles POST /api/resolve
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.resolver.Resolve(r.Context(), req.Query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
