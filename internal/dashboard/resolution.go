package dashboard

import (
	"context"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// PlaceRequest asks for one place to be resolved. Known carries coordinates
// the backend already attached; such a request resolves to that point
// without a geocoder call and without a place id.
type PlaceRequest struct {
	Name  string
	Known *entities.Coordinates
}

// PlaceResolver turns place names into ResolvedPlaces through a geocoder
type PlaceResolver struct {
	geocoder    providers.GeocodingProvider
	concurrency int
	metrics     *observability.Metrics
}

// NewPlaceResolver creates a resolver. concurrency caps in-flight geocode
// calls during concurrent resolution.
func NewPlaceResolver(geocoder providers.GeocodingProvider, concurrency int, metrics *observability.Metrics) *PlaceResolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PlaceResolver{
		geocoder:    geocoder,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// ResolveSequential geocodes names strictly one after another and returns
// the places that resolved, in input order. The only error is ctx's.
func (r *PlaceResolver) ResolveSequential(ctx context.Context, names []string) ([]entities.ResolvedPlace, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.ResolveSequential")
	defer span.End()
	span.SetAttributes(attribute.Int("places.requested", len(names)))

	out := make([]entities.ResolvedPlace, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if place := r.resolve(ctx, PlaceRequest{Name: name}); place != nil {
			out = append(out, *place)
		}
	}

	span.SetAttributes(attribute.Int("places.resolved", len(out)))
	return out, nil
}

// ResolveConcurrent geocodes all requests at once and waits for every one to
// settle. Slot i of the result holds request i's place, or nil when it did
// not resolve. A failed lookup never cancels its siblings.
func (r *PlaceResolver) ResolveConcurrent(ctx context.Context, requests []PlaceRequest) ([]*entities.ResolvedPlace, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.ResolveConcurrent")
	defer span.End()
	span.SetAttributes(attribute.Int("places.requested", len(requests)))

	out := make([]*entities.ResolvedPlace, len(requests))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, req := range requests {
		g.Go(func() error {
			out[i] = r.resolve(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PlaceResolver) resolve(ctx context.Context, req PlaceRequest) *entities.ResolvedPlace {
	if req.Known != nil {
		return &entities.ResolvedPlace{Name: req.Name, Location: *req.Known}
	}

	start := time.Now()
	res, err := r.geocoder.Geocode(ctx, req.Name)
	observability.RecordProviderCall(ctx, r.metrics, "geocoder", "geocode", time.Since(start), err)

	switch {
	case err != nil:
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("place", req.Name).Msg("Geocode failed, skipping place")
	case res.OK():
		place := *res.Place
		if place.Name == "" {
			place.Name = req.Name
		}
		return &place
	}

	observability.RecordGeocodeMiss(ctx, r.metrics)
	return nil
}
