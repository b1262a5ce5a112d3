// Package dashboard renders resolved queries: it resolves place names,
// decides between informational and route presentation, and owns the
// highlight set and every overlay drawn for a session.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/geo"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// User-visible notices
const (
	MsgAnalysisFailed = "Analysis failed. Please try again."
	MsgNoLocation     = "No location found."
	MsgNoFlightPath   = "No flight path found."
	MsgRoutingFailed  = "Routing failed. Please try again."
)

var (
	// ErrSuperseded is returned when a newer search or route replaced this
	// one before it finished; its results were discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrNoLocation is returned when none of the places resolved
	ErrNoLocation = errors.New("no location found")

	// ErrNoFlightPath is returned when fewer than two stops could be placed
	ErrNoFlightPath = errors.New("no flight path found")
)

const flightPathSteps = 64

// Deps are the collaborators a Coordinator calls out to. Weather and
// Metrics are optional.
type Deps struct {
	SessionID          string
	Dispatcher         providers.QueryDispatcher
	Geocoder           providers.GeocodingProvider
	Router             providers.RoutingProvider
	Weather            providers.WeatherProvider
	Metrics            *observability.Metrics
	GeocodeConcurrency int
}

// Coordinator drives one dashboard through
// IDLE -> DISPATCHING -> RENDERING_INFO | RENDERING_ROUTE -> IDLE.
//
// Every search bumps a generation counter and every route computation bumps
// a second one; work that finishes after its generation was superseded is
// dropped instead of rendered.
type Coordinator struct {
	surface    Surface
	dispatcher providers.QueryDispatcher
	resolver   *PlaceResolver
	router     providers.RoutingProvider
	weather    providers.WeatherProvider
	metrics    *observability.Metrics
	logger     zerolog.Logger

	mu         sync.Mutex
	state      entities.DashboardState
	highlights *HighlightSet
	places     map[string]entities.ResolvedPlace
	routeNames []string
	activeMode entities.TravelMode
	searchGen  uint64
	routeGen   uint64
	inflight   int
}

// NewCoordinator creates a coordinator rendering into surface
func NewCoordinator(surface Surface, deps Deps) *Coordinator {
	return &Coordinator{
		surface:    surface,
		dispatcher: deps.Dispatcher,
		resolver:   NewPlaceResolver(deps.Geocoder, deps.GeocodeConcurrency, deps.Metrics),
		router:     deps.Router,
		weather:    deps.Weather,
		metrics:    deps.Metrics,
		logger:     log.With().Str("session_id", deps.SessionID).Logger(),
		state:      entities.DashboardStateIdle,
		highlights: NewHighlightSet(),
		places:     make(map[string]entities.ResolvedPlace),
	}
}

// State returns the current presentation state
func (c *Coordinator) State() entities.DashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Highlights returns the highlighted place ids
func (c *Coordinator) Highlights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlights.IDs()
}

// ActiveMode returns the travel mode of the current route, if any
func (c *Coordinator) ActiveMode() entities.TravelMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeMode
}

// Search dispatches query and renders the result. The loading indicator is
// cleared on every path out. A dispatch failure shows a notice and leaves
// whatever was on screen untouched.
func (c *Coordinator) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return apperrors.NewValidationError("query is required")
	}

	ctx, span := observability.StartSpan(ctx, "dashboard.Search")
	defer span.End()

	c.mu.Lock()
	c.searchGen++
	c.routeGen++
	gen := c.searchGen
	c.beginLocked()
	c.setStateLocked(entities.DashboardStateDispatching)
	c.mu.Unlock()
	defer c.finish()

	logger := c.logger.With().Str("query", query).Uint64("generation", gen).Logger()

	result, err := c.dispatcher.Resolve(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		logger.Warn().Err(err).Msg("Query dispatch failed")
		c.notifyIfCurrent(gen, 0, entities.NoticeLevelError, MsgAnalysisFailed)
		return fmt.Errorf("dispatch query: %w", err)
	}

	plottable := result.PlottableResults()
	span.SetAttributes(
		attribute.String("dashboard.intent", string(result.Intent)),
		attribute.Int("dashboard.results", len(result.Results)),
		attribute.Int("dashboard.plottable", len(plottable)),
	)

	if result.Intent == entities.IntentRoute && len(plottable) >= 2 {
		logger.Info().Int("stops", len(plottable)).Msg("Rendering route")
		observability.RecordSearch(ctx, c.metrics, "route")
		return c.renderRoute(ctx, gen, query, result.Intent, plottable)
	}

	logger.Info().Str("intent", string(result.Intent)).Int("places", len(plottable)).Msg("Rendering info")
	observability.RecordSearch(ctx, c.metrics, "info")
	return c.renderInfo(ctx, gen, query, result, plottable)
}

func (c *Coordinator) renderInfo(ctx context.Context, gen uint64, query string, result *entities.ResolveResult, plottable []entities.PlaceResult) error {
	c.mu.Lock()
	if gen != c.searchGen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.resetLocked(query, result.Intent)
	c.setStateLocked(entities.DashboardStateRenderingInfo)
	c.mu.Unlock()

	requests := make([]PlaceRequest, len(plottable))
	for i, res := range plottable {
		requests[i] = PlaceRequest{Name: res.Name()}
		if at, ok := res.Coordinates(); ok {
			requests[i].Known = &at
		}
	}

	places, err := c.resolver.ResolveConcurrent(ctx, requests)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		return ErrSuperseded
	}

	var bounds entities.BoundsBuilder
	resolved := 0
	for _, place := range places {
		if place == nil {
			continue
		}
		resolved++
		if place.PlaceID != "" {
			c.highlights.Add(place.PlaceID)
			c.places[place.PlaceID] = *place
		}
		c.surface.AddMarker(entities.Marker{
			PlaceID:  place.PlaceID,
			Title:    place.Name,
			Position: place.Location,
		})
		bounds.AddBounds(place.Extent())
	}

	if resolved == 0 {
		c.surface.Notify(entities.NoticeLevelError, MsgNoLocation)
		return ErrNoLocation
	}

	c.surface.SetHighlights(c.highlights.IDs())
	if b, ok := bounds.Bounds(); ok {
		c.surface.FitBounds(b)
	}
	c.surface.RenderCards(BuildCards(result.Results))
	return nil
}

func (c *Coordinator) renderRoute(ctx context.Context, gen uint64, query string, intent entities.Intent, plottable []entities.PlaceResult) error {
	names := make([]string, len(plottable))
	for i, res := range plottable {
		names[i] = res.Name()
	}

	c.mu.Lock()
	if gen != c.searchGen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.resetLocked(query, intent)
	c.routeNames = cloneSlice(names)
	c.mu.Unlock()

	return c.computeRoute(ctx, gen, names, entities.TravelModeDriving, entities.RouteTriggerAuto)
}

// ComputeRoute replaces the current presentation with a route through names
// in the given order. Only an automatic trigger may fall back to AIR.
func (c *Coordinator) ComputeRoute(ctx context.Context, names []string, mode entities.TravelMode, trigger entities.RouteTrigger) error {
	if len(names) < 2 {
		return apperrors.NewValidationError("a route needs at least two places")
	}

	c.mu.Lock()
	c.searchGen++
	c.routeGen++
	gen := c.searchGen
	c.resetLocked("", entities.IntentRoute)
	c.routeNames = cloneSlice(names)
	c.beginLocked()
	c.mu.Unlock()
	defer c.finish()

	return c.computeRoute(ctx, gen, cloneSlice(names), mode, trigger)
}

// SwitchMode re-routes the cached stops of the current route in another
// travel mode. The query is not dispatched again and failures never fall
// back to AIR.
func (c *Coordinator) SwitchMode(ctx context.Context, mode entities.TravelMode) error {
	c.mu.Lock()
	names := cloneSlice(c.routeNames)
	gen := c.searchGen
	if len(names) < 2 {
		c.mu.Unlock()
		return apperrors.NewValidationError("no active route to switch")
	}
	c.beginLocked()
	c.mu.Unlock()
	defer c.finish()

	return c.computeRoute(ctx, gen, names, mode, entities.RouteTriggerManual)
}

func (c *Coordinator) computeRoute(ctx context.Context, gen uint64, names []string, mode entities.TravelMode, trigger entities.RouteTrigger) error {
	ctx, span := observability.StartSpan(ctx, "dashboard.ComputeRoute")
	defer span.End()
	span.SetAttributes(
		attribute.String("route.mode", string(mode)),
		attribute.String("route.trigger", trigger.String()),
		attribute.Int("route.stops", len(names)),
	)

	c.mu.Lock()
	if gen != c.searchGen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.routeGen++
	rgen := c.routeGen
	c.activeMode = mode
	c.surface.ClearRoute()
	c.surface.ShowModeSelector(mode)
	c.setStateLocked(entities.DashboardStateRenderingRoute)
	c.mu.Unlock()

	if mode == entities.TravelModeAir {
		return c.drawFlightPaths(ctx, gen, rgen, names)
	}

	req := entities.RouteRequest{
		Origin:      names[0],
		Destination: names[len(names)-1],
		Waypoints:   cloneSlice(names[1 : len(names)-1]),
		Mode:        mode,
	}

	start := time.Now()
	directions, err := c.router.Route(ctx, req)
	observability.RecordProviderCall(ctx, c.metrics, "router", "route", time.Since(start), err)

	if err != nil {
		noRoute := errors.Is(err, providers.ErrNoRoute)
		if noRoute && trigger == entities.RouteTriggerAuto {
			c.logger.Info().Str("mode", string(mode)).Msg("No ground route, falling back to flight path")
			observability.RecordAirFallback(ctx, c.metrics, string(mode))
			return c.computeRoute(ctx, gen, names, entities.TravelModeAir, trigger)
		}

		observability.RecordError(span, err)
		c.logger.Warn().Err(err).Str("mode", string(mode)).Str("trigger", trigger.String()).Msg("Route computation failed")

		msg := MsgRoutingFailed
		if noRoute {
			msg = fmt.Sprintf("No %s route found.", strings.ToLower(string(mode)))
		}
		c.notifyIfCurrent(gen, rgen, entities.NoticeLevelError, msg)
		return fmt.Errorf("route %s: %w", mode, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(gen, rgen) {
		return ErrSuperseded
	}

	c.surface.DrawDirections(directions)
	if directions.Bounds != nil {
		c.surface.FitBounds(*directions.Bounds)
	}
	c.surface.ShowRouteStats(entities.RouteStats{
		Mode:     mode,
		Distance: FormatDistance(directions.TotalDistanceMeters()),
		Duration: FormatDuration(directions.TotalDurationSeconds()),
	})
	return nil
}

func (c *Coordinator) drawFlightPaths(ctx context.Context, gen, rgen uint64, names []string) error {
	places, err := c.resolver.ResolveSequential(ctx, names)
	if err != nil {
		return err
	}
	if len(places) < 2 {
		c.notifyIfCurrent(gen, rgen, entities.NoticeLevelError, MsgNoFlightPath)
		return ErrNoFlightPath
	}

	segments := AirSegments(places)
	totalKm := 0.0
	for _, seg := range segments {
		totalKm += seg.DistanceKm
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(gen, rgen) {
		return ErrSuperseded
	}

	var bounds entities.BoundsBuilder
	for _, place := range places {
		c.surface.AddMarker(entities.Marker{PlaceID: place.PlaceID, Title: place.Name, Position: place.Location})
		bounds.AddPoint(place.Location)
	}
	for _, seg := range segments {
		c.surface.DrawFlightPath(entities.FlightPath{
			From: seg.From.Location,
			To:   seg.To.Location,
			Path: seg.Path,
		})
	}
	if b, ok := bounds.Bounds(); ok {
		c.surface.FitBounds(b)
	}
	c.surface.ShowRouteStats(entities.RouteStats{
		Mode:      entities.TravelModeAir,
		Distance:  FormatAirDistance(totalKm),
		Duration:  FormatAirDuration(AirMinutes(totalKm, len(places))),
		Estimated: true,
	})
	return nil
}

// AirSegments joins consecutive places with great-circle segments
func AirSegments(places []entities.ResolvedPlace) []entities.RouteSegment {
	if len(places) < 2 {
		return nil
	}
	segments := make([]entities.RouteSegment, 0, len(places)-1)
	for i := 1; i < len(places); i++ {
		from, to := places[i-1], places[i]
		segments = append(segments, entities.RouteSegment{
			From:       from,
			To:         to,
			Mode:       entities.TravelModeAir,
			DistanceKm: geo.HaversineKm(from.Location, to.Location),
			Path:       geo.GreatCircle(from.Location, to.Location, flightPathSteps),
		})
	}
	return segments
}

// FeatureStyle is the style callback for the map feature layer
func (c *Coordinator) FeatureStyle(placeID string, hovered bool) (entities.FeatureStyle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlights.Style(placeID, hovered)
}

// InspectFeature handles a click on a map feature. Only highlighted
// features respond; they report current weather and air quality.
func (c *Coordinator) InspectFeature(ctx context.Context, placeID string) (*entities.FeatureInspection, error) {
	c.mu.Lock()
	place, ok := c.places[placeID]
	highlighted := c.highlights.Has(placeID)
	c.mu.Unlock()

	if !ok || !highlighted {
		return nil, apperrors.NewNotFoundError("feature is not highlighted")
	}
	if c.weather == nil {
		return nil, apperrors.NewUnavailableError("weather lookups are not configured")
	}

	inspection := &entities.FeatureInspection{
		PlaceID:  placeID,
		Name:     place.Name,
		Location: place.Location,
	}

	var g errgroup.Group
	g.Go(func() error {
		w, err := c.weather.CurrentWeather(ctx, place.Location)
		if err != nil {
			c.logger.Warn().Err(err).Str("place_id", placeID).Msg("Weather lookup failed")
			return nil
		}
		inspection.Weather = w
		return nil
	})
	g.Go(func() error {
		aq, err := c.weather.AirQuality(ctx, place.Location)
		if err != nil {
			c.logger.Warn().Err(err).Str("place_id", placeID).Msg("Air quality lookup failed")
			return nil
		}
		inspection.AirQuality = aq
		return nil
	})
	_ = g.Wait()

	if inspection.Weather == nil && inspection.AirQuality == nil {
		return nil, apperrors.NewExternalError("weather lookup failed", nil)
	}
	return inspection, nil
}

// resetLocked clears everything rendered and owned for the previous search
func (c *Coordinator) resetLocked(query string, intent entities.Intent) {
	c.surface.Reset(query, intent)
	c.highlights.Clear()
	c.places = make(map[string]entities.ResolvedPlace)
	c.routeNames = nil
	c.activeMode = ""
}

func (c *Coordinator) beginLocked() {
	c.inflight++
	c.surface.SetLoading(true)
}

// finish is deferred by every entry point so the loading indicator always
// clears once nothing is in flight
func (c *Coordinator) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	c.surface.SetLoading(c.inflight > 0)
	if c.inflight == 0 {
		c.setStateLocked(entities.DashboardStateIdle)
	}
}

func (c *Coordinator) setStateLocked(state entities.DashboardState) {
	c.state = state
	c.surface.SetState(state)
}

// currentLocked reports whether gen and rgen are still the latest search
// and route. rgen 0 skips the route check.
func (c *Coordinator) currentLocked(gen, rgen uint64) bool {
	return gen == c.searchGen && (rgen == 0 || rgen == c.routeGen)
}

func (c *Coordinator) notifyIfCurrent(gen, rgen uint64, level entities.NoticeLevel, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentLocked(gen, rgen) {
		c.surface.Notify(level, msg)
	}
}
