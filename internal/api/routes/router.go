package routes

import (
	"net/http"

	"github.com/geosight/dashboard/internal/api/handlers"
	"github.com/geosight/dashboard/internal/api/middleware"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	resolveHandler   *handlers.ResolveHandler
	geocodingHandler *handlers.GeocodingHandler
	mapsHandler      *handlers.MapsHandler
	dashboardHandler *handlers.DashboardHandler
	sseHandler       *handlers.SSEHandler
	analyticsHandler *handlers.AnalyticsHandler
	healthHandler    *handlers.HealthHandler

	rateLimiter     *middleware.RateLimiter
	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// NewRouter creates a new router. A nil handler leaves its routes
// unregistered; a nil rate limiter or cache disables that layer.
func NewRouter(
	resolveHandler *handlers.ResolveHandler,
	geocodingHandler *handlers.GeocodingHandler,
	mapsHandler *handlers.MapsHandler,
	dashboardHandler *handlers.DashboardHandler,
	sseHandler *handlers.SSEHandler,
	rateLimiter *middleware.RateLimiter,
	cacheMiddleware *middleware.CacheMiddleware,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		resolveHandler:   resolveHandler,
		geocodingHandler: geocodingHandler,
		mapsHandler:      mapsHandler,
		dashboardHandler: dashboardHandler,
		sseHandler:       sseHandler,
		rateLimiter:      rateLimiter,
		cacheMiddleware:  cacheMiddleware,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// WithAnalytics mounts the query log endpoints
func (r *Router) WithAnalytics(h *handlers.AnalyticsHandler) *Router {
	r.analyticsHandler = h
	return r
}

// WithHealth mounts the readiness probe
func (r *Router) WithHealth(h *handlers.HealthHandler) *Router {
	r.healthHandler = h
	return r
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	if r.healthHandler != nil {
		r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	}

	// Query resolution
	if r.resolveHandler != nil {
		resolve := r.resolveHandler.Resolve
		if r.rateLimiter != nil {
			resolve = r.rateLimiter.Wrap(resolve)
		}
		r.mux.HandleFunc("POST /api/resolve", resolve)
	}

	// Geocoding endpoints
	if r.geocodingHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geocodingHandler.Geocode)
	}

	// Maps endpoints
	if r.mapsHandler != nil {
		r.mux.HandleFunc("GET /api/maps/static", r.mapsHandler.GetStaticMap)
		r.mux.HandleFunc("GET /api/dashboard/sessions/{id}/map.png", r.mapsHandler.GetSessionMap)
	}

	// Dashboard sessions
	if r.dashboardHandler != nil {
		search := r.dashboardHandler.Search
		if r.rateLimiter != nil {
			search = r.rateLimiter.Wrap(search)
		}
		r.mux.HandleFunc("POST /api/dashboard/sessions", r.dashboardHandler.CreateSession)
		r.mux.HandleFunc("GET /api/dashboard/sessions/{id}", r.dashboardHandler.GetScene)
		r.mux.HandleFunc("DELETE /api/dashboard/sessions/{id}", r.dashboardHandler.CloseSession)
		r.mux.HandleFunc("POST /api/dashboard/sessions/{id}/search", search)
		r.mux.HandleFunc("POST /api/dashboard/sessions/{id}/mode", r.dashboardHandler.SwitchMode)
		r.mux.HandleFunc("GET /api/dashboard/sessions/{id}/features/{placeId}/style", r.dashboardHandler.FeatureStyle)
		r.mux.HandleFunc("POST /api/dashboard/sessions/{id}/features/{placeId}/inspect", r.dashboardHandler.InspectFeature)
	}

	// Query log
	if r.analyticsHandler != nil {
		r.mux.HandleFunc("GET /api/analytics/unresolved", r.analyticsHandler.UnresolvedQueries)
	}

	// Server-sent scene updates
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/dashboard/{id}", r.sseHandler.StreamDashboard)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
