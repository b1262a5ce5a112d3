package handlers

import (
	"net/http"
	"strings"

	"github.com/geosight/dashboard/internal/domain/providers"
)

// GeocodingHandler exposes the configured geocoder
type GeocodingHandler struct {
	provider providers.GeocodingProvider
}

// NewGeocodingHandler creates a new geocoding handler
func NewGeocodingHandler(provider providers.GeocodingProvider) *GeocodingHandler {
	return &GeocodingHandler{provider: provider}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeocodingHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	result, err := h.provider.Geocode(r.Context(), address)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	payload := map[string]interface{}{
		"address": address,
		"status":  result.Status,
	}
	if result.OK() {
		payload["place"] = result.Place
	}
	respondWithJSON(w, http.StatusOK, payload)
}
