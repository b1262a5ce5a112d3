package handlers

import (
	"net/http"
	"strconv"

	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/entities"
	apperrors "github.com/geosight/dashboard/pkg/errors"
)

// DashboardHandler drives dashboard sessions over HTTP
type DashboardHandler struct {
	sessions *dashboard.SessionManager
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(sessions *dashboard.SessionManager) *DashboardHandler {
	return &DashboardHandler{sessions: sessions}
}

// sceneResponse is the scene after an operation. Error carries the outcome of
// an operation that failed after the request was accepted; the scene's
// notices say the same thing to the user.
type sceneResponse struct {
	Scene entities.Scene `json:"scene"`
	Error string         `json:"error,omitempty"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// CreateSession handles POST /api/dashboard/sessions
func (h *DashboardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(r.Context())
	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    s.ID,
		"scene": s.Scene.Snapshot(),
	})
}

// GetScene handles GET /api/dashboard/sessions/{id}
func (h *DashboardHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, sceneResponse{Scene: s.Scene.Snapshot()})
}

// CloseSession handles DELETE /api/dashboard/sessions/{id}
func (h *DashboardHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles POST /api/dashboard/sessions/{id}/search
func (h *DashboardHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	err := s.Coordinator.Search(r.Context(), req.Query)
	h.respondWithScene(w, r, s, err)
}

// SwitchMode handles POST /api/dashboard/sessions/{id}/mode
func (h *DashboardHandler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req modeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	mode, err := entities.ParseTravelMode(req.Mode)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.Coordinator.SwitchMode(r.Context(), mode)
	h.respondWithScene(w, r, s, err)
}

// FeatureStyle handles GET /api/dashboard/sessions/{id}/features/{placeId}/style
func (h *DashboardHandler) FeatureStyle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	hovered, _ := strconv.ParseBool(r.URL.Query().Get("hovered"))
	style, styled := s.Coordinator.FeatureStyle(r.PathValue("placeId"), hovered)
	if !styled {
		respondWithJSON(w, http.StatusOK, map[string]interface{}{"styled": false})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"styled": true,
		"style":  style,
	})
}

// InspectFeature handles POST /api/dashboard/sessions/{id}/features/{placeId}/inspect
func (h *DashboardHandler) InspectFeature(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	inspection, err := s.Coordinator.InspectFeature(r.Context(), r.PathValue("placeId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, inspection)
}

func (h *DashboardHandler) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return s, true
}

// respondWithScene answers 400 for rejected input and 200 with the scene
// otherwise, since a failed search is still a rendered outcome.
func (h *DashboardHandler) respondWithScene(w http.ResponseWriter, r *http.Request, s *dashboard.Session, err error) {
	if err != nil && apperrors.TypeOf(err) == apperrors.ErrorTypeValidation {
		respondWithAppError(w, r, err)
		return
	}

	resp := sceneResponse{Scene: s.Scene.Snapshot()}
	if err != nil {
		resp.Error = err.Error()
	}
	respondWithJSON(w, http.StatusOK, resp)
}
