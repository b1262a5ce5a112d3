package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
)

const (
	staticMapURL          = "https://maps.googleapis.com/maps/api/staticmap"
	defaultStaticMapZoom  = "13"
	defaultStaticMapSize  = "640x360"
	defaultStaticMapScale = "1"
	staticMapCacheTTL     = 60 * 60 * 24 * 7
	maxMapMarkers         = 50
	routeColor            = "0x1a73e8ff"
)

// MapsHandler renders static map images, either for explicit parameters or
// for the current scene of a dashboard session.
type MapsHandler struct {
	apiKey   string
	cache    providers.CacheProvider
	sessions *dashboard.SessionManager
	client   *http.Client
	baseURL  string
}

// NewMapsHandler creates a new maps handler.
func NewMapsHandler(apiKey string, cache providers.CacheProvider, sessions *dashboard.SessionManager) *MapsHandler {
	return NewMapsHandlerWithOptions(apiKey, cache, sessions, staticMapURL, nil)
}

// NewMapsHandlerWithOptions allows overriding base URL and HTTP client (used for tests).
func NewMapsHandlerWithOptions(apiKey string, cache providers.CacheProvider, sessions *dashboard.SessionManager, baseURL string, client *http.Client) *MapsHandler {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = staticMapURL
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &MapsHandler{
		apiKey:   apiKey,
		cache:    cache,
		sessions: sessions,
		client:   client,
		baseURL:  baseURL,
	}
}

// GetStaticMap handles GET /api/maps/static?center=|lat=&lon=&zoom=&markers=
func (h *MapsHandler) GetStaticMap(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	center := strings.TrimSpace(query.Get("center"))
	if center == "" {
		lat := strings.TrimSpace(query.Get("lat"))
		lon := strings.TrimSpace(query.Get("lon"))
		if lat == "" || lon == "" {
			respondWithError(w, http.StatusBadRequest, "center or lat/lon required")
			return
		}
		center = fmt.Sprintf("%s,%s", lat, lon)
	}

	values := url.Values{}
	values.Set("center", center)
	values.Set("zoom", queryOrDefault(query, "zoom", defaultStaticMapZoom))
	values.Set("size", queryOrDefault(query, "size", defaultStaticMapSize))
	values.Set("scale", queryOrDefault(query, "scale", defaultStaticMapScale))
	for _, marker := range normalizeMarkers(query.Get("markers")) {
		values.Add("markers", marker)
	}

	h.serveMap(w, r, values)
}

// GetSessionMap handles GET /api/dashboard/sessions/{id}/map.png
func (h *MapsHandler) GetSessionMap(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	values, ok := sceneMapValues(s.Scene.Snapshot())
	if !ok {
		respondWithError(w, http.StatusNotFound, "scene has nothing to draw")
		return
	}
	query := r.URL.Query()
	values.Set("size", queryOrDefault(query, "size", defaultStaticMapSize))
	values.Set("scale", queryOrDefault(query, "scale", defaultStaticMapScale))

	h.serveMap(w, r, values)
}

// sceneMapValues draws markers, the route and the camera of a scene
func sceneMapValues(scene entities.Scene) (url.Values, bool) {
	values := url.Values{}

	if len(scene.Markers) > 0 {
		marker := []string{"color:red"}
		for i, m := range scene.Markers {
			if i == maxMapMarkers {
				break
			}
			marker = append(marker, formatPoint(m.Position))
		}
		values.Add("markers", strings.Join(marker, "|"))
	}

	if d := scene.Directions; d != nil && d.OverviewPolyline != "" {
		values.Add("path", fmt.Sprintf("color:%s|weight:4|enc:%s", routeColor, d.OverviewPolyline))
	}
	for _, fp := range scene.FlightPaths {
		values.Add("path", fmt.Sprintf("color:%s|weight:3|geodesic:true|%s|%s", routeColor, formatPoint(fp.From), formatPoint(fp.To)))
	}

	if scene.Camera != nil {
		c := scene.Camera
		values.Add("visible", formatPoint(entities.Coordinates{Latitude: c.North, Longitude: c.East}))
		values.Add("visible", formatPoint(entities.Coordinates{Latitude: c.South, Longitude: c.West}))
	}

	return values, len(values) > 0
}

func (h *MapsHandler) serveMap(w http.ResponseWriter, r *http.Request, values url.Values) {
	if h.apiKey == "" {
		respondWithError(w, http.StatusServiceUnavailable, "maps api key not configured")
		return
	}

	cacheKey := "maps:static:" + hashString(values.Encode())
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil && len(cached) > 0 {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	signed := url.Values{}
	for k, v := range values {
		signed[k] = v
	}
	signed.Set("key", h.apiKey)

	mapURL := fmt.Sprintf("%s?%s", h.baseURL, signed.Encode())
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, mapURL, nil)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to build map request")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch map image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondWithError(w, http.StatusBadGateway, "map provider returned an error")
		return
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to read map image")
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, imageBytes, staticMapCacheTTL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(imageBytes)
}

func queryOrDefault(query url.Values, key, def string) string {
	if v := strings.TrimSpace(query.Get(key)); v != "" {
		return v
	}
	return def
}

func formatPoint(c entities.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f", c.Latitude, c.Longitude)
}

func normalizeMarkers(markersParam string) []string {
	if strings.TrimSpace(markersParam) == "" {
		return nil
	}

	raw := strings.Split(markersParam, "|")
	clean := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		clean = append(clean, item)
	}
	return clean
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
