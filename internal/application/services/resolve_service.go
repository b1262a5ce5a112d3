package services

import (
	"context"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Gazetteer score bands
const (
	ResolvedThreshold      = 0.75
	ClarificationThreshold = 0.3
)

const (
	nearbyLimit     = 10
	rainfallDays    = 5
	enrichmentLimit = 8
)

// ResolveDeps are the collaborators of a ResolveService. Only Analyzer is
// required; a nil source is skipped.
type ResolveDeps struct {
	Analyzer  providers.QueryAnalyzer
	Gazetteer repositories.GazetteerRepository
	Index     repositories.PlaceIndex
	Geocoder  providers.GeocodingProvider
	Weather   providers.WeatherProvider
	Trips     TripPlanner
	Metrics   *observability.Metrics
	Tracker   QueryTracker
}

// ResolveService turns a free-form query into an intent and an ordered list
// of places. It backs the /api/resolve endpoint and also serves in-process
// dashboards as their QueryDispatcher.
type ResolveService struct {
	deps ResolveDeps
}

var _ providers.QueryDispatcher = (*ResolveService)(nil)

// NewResolveService creates a new resolve service
func NewResolveService(deps ResolveDeps) *ResolveService {
	return &ResolveService{deps: deps}
}

// Resolve analyses query and resolves every location it names
func (s *ResolveService) Resolve(ctx context.Context, query string) (*entities.ResolveResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query is required")
	}

	ctx, span := observability.StartSpan(ctx, "resolve.Resolve")
	defer span.End()
	start := time.Now()

	analysis, err := s.deps.Analyzer.Analyze(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.String("intent", string(analysis.Intent)),
		attribute.Int("locations", len(analysis.Locations)),
	)

	results := s.resolveLocations(ctx, analysis)

	switch analysis.Intent {
	case entities.IntentNearby:
		results = s.expandNearby(ctx, results, analysis.RadiusKm)
	case entities.IntentWeather:
		s.attachWeather(ctx, results)
	}

	log.Info().
		Str("query", query).
		Str("intent", string(analysis.Intent)).
		Int("results", len(results)).
		Msg("Resolved query")

	out := &entities.ResolveResult{
		Status:  "success",
		Intent:  analysis.Intent,
		Results: results,
	}
	if analysis.Intent == entities.IntentRoute {
		out.MultimodalRoute = s.planTrip(ctx, results)
	}
	if s.deps.Tracker != nil {
		s.deps.Tracker.TrackQuery(entities.NewQueryEvent(query, out, time.Since(start)))
	}
	return out, nil
}

func (s *ResolveService) resolveLocations(ctx context.Context, analysis *providers.QueryAnalysis) []entities.PlaceResult {
	loader := s.newGazetteerLoader()

	// queue every lookup before waiting so the loader can batch them
	thunks := make([]dataloader.Thunk[*entities.GazetteerMatch], len(analysis.Locations))
	for i, loc := range analysis.Locations {
		thunks[i] = loader.Load(ctx, loc)
	}

	results := make([]entities.PlaceResult, 0, len(analysis.Locations))
	for i, loc := range analysis.Locations {
		match, err := thunks[i]()
		if err != nil {
			log.Warn().Err(err).Str("location", loc).Msg("Gazetteer lookup failed")
		}

		var res entities.PlaceResult
		if match != nil && match.Score >= ClarificationThreshold {
			res = match.ToPlaceResult(loc, entities.SourceGazetteer)
			res.Status = entities.PlaceStatusClarificationRequired
			if match.Score >= ResolvedThreshold {
				res.Status = entities.PlaceStatusResolved
			}
		} else {
			res = s.geocode(ctx, loc)
		}

		detail := analysis.LocationDetails[loc]
		res.AISummary = detail.Summary
		res.AIAnswer = detail.Answer
		results = append(results, res)
	}
	return results
}

// newGazetteerLoader is request scoped: repeated names in one query cost a
// single lookup.
func (s *ResolveService) newGazetteerLoader() *dataloader.Loader[string, *entities.GazetteerMatch] {
	return dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.GazetteerMatch] {
		results := make([]*dataloader.Result[*entities.GazetteerMatch], len(keys))
		for i, key := range keys {
			match, err := s.lookup(ctx, key)
			results[i] = &dataloader.Result[*entities.GazetteerMatch]{Data: match, Error: err}
		}
		return results
	})
}

// lookup asks the database first and the search index second. A miss in both
// is (nil, nil).
func (s *ResolveService) lookup(ctx context.Context, term string) (*entities.GazetteerMatch, error) {
	var lastErr error

	if s.deps.Gazetteer != nil {
		match, err := s.deps.Gazetteer.Lookup(ctx, term)
		switch {
		case err == nil:
			return match, nil
		case apperrors.TypeOf(err) != apperrors.ErrorTypeNotFound:
			lastErr = err
		}
	}

	if s.deps.Index != nil {
		match, err := s.deps.Index.Search(ctx, term)
		switch {
		case err == nil:
			return match, nil
		case apperrors.TypeOf(err) != apperrors.ErrorTypeNotFound:
			lastErr = err
		}
	}

	return nil, lastErr
}

// geocode resolves a gazetteer miss. Without a usable geocoder the entry is
// returned without coordinates or status, leaving the client to geocode it.
func (s *ResolveService) geocode(ctx context.Context, loc string) entities.PlaceResult {
	res := entities.PlaceResult{
		Token:    loc,
		CityName: loc,
		Source:   entities.SourceGeocoder,
	}
	if s.deps.Geocoder == nil {
		return res
	}

	geo, err := s.deps.Geocoder.Geocode(ctx, loc)
	if err != nil {
		log.Warn().Err(err).Str("location", loc).Msg("Server-side geocode failed")
		return res
	}
	if !geo.OK() {
		observability.RecordGeocodeMiss(ctx, s.deps.Metrics)
		res.Status = entities.PlaceStatusUnmatched
		return res
	}

	res.Status = entities.PlaceStatusResolved
	res.CanonicalName = geo.Place.Name
	res.SetCoordinates(geo.Place.Location)
	return res
}

// expandNearby appends gazetteer cities around the first located result and
// drops repeated names, keeping first occurrences.
func (s *ResolveService) expandNearby(ctx context.Context, results []entities.PlaceResult, radiusKm float64) []entities.PlaceResult {
	if s.deps.Gazetteer == nil {
		return results
	}
	if radiusKm <= 0 {
		radiusKm = providers.DefaultNearbyRadiusKm
	}

	var center *entities.Coordinates
	for _, r := range results {
		if c, ok := r.Coordinates(); ok && r.Plottable() {
			center = &c
			break
		}
	}
	if center == nil {
		return results
	}

	neighbors, err := s.deps.Gazetteer.Nearby(ctx, *center, radiusKm, nearbyLimit)
	if err != nil {
		log.Warn().Err(err).Float64("radius_km", radiusKm).Msg("Nearby lookup failed")
		return results
	}

	for _, n := range neighbors {
		r := entities.PlaceResult{
			Token:      n.Name,
			CityName:   n.Name,
			Status:     entities.PlaceStatusResolved,
			Type:       entities.PlaceTypeCity,
			Population: n.Population,
			Source:     entities.SourceNearby,
		}
		r.SetCoordinates(n.Location)
		results = append(results, r)
	}

	seen := make(map[string]struct{}, len(results))
	unique := results[:0]
	for _, r := range results {
		name := r.Name()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// attachWeather fills weather and rainfall for every located result.
// Failures leave the fields empty.
func (s *ResolveService) attachWeather(ctx context.Context, results []entities.PlaceResult) {
	if s.deps.Weather == nil {
		return
	}

	var g errgroup.Group
	g.SetLimit(enrichmentLimit)
	for i := range results {
		at, ok := results[i].Coordinates()
		if !ok {
			continue
		}
		r := &results[i]
		g.Go(func() error {
			if w, err := s.deps.Weather.CurrentWeather(ctx, at); err == nil {
				r.Weather = w
			} else {
				log.Debug().Err(err).Str("location", r.Name()).Msg("Current weather unavailable")
			}
			return nil
		})
		g.Go(func() error {
			if h, err := s.deps.Weather.RainfallHistory(ctx, at, rainfallDays); err == nil {
				r.RainfallHistory = h
			} else {
				log.Debug().Err(err).Str("location", r.Name()).Msg("Rainfall history unavailable")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// planTrip offers a drive-fly-drive alternative between the first and last
// located stops. Planner failures only cost the alternative.
func (s *ResolveService) planTrip(ctx context.Context, results []entities.PlaceResult) *entities.MultimodalRoute {
	if s.deps.Trips == nil {
		return nil
	}

	var stops []entities.Coordinates
	for _, r := range results {
		if c, ok := r.Coordinates(); ok && r.Plottable() {
			stops = append(stops, c)
		}
	}
	if len(stops) < 2 {
		return nil
	}

	trip, err := s.deps.Trips.Plan(ctx, stops[0], stops[len(stops)-1])
	if err != nil {
		log.Warn().Err(err).Msg("Multimodal trip planning failed")
		return nil
	}
	return trip
}
