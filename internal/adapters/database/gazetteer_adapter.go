package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/lib/pq"
)

// MinSimilarity is the pg_trgm similarity a gazetteer row must exceed to match
const MinSimilarity = 0.3

// lookupSQL ranks countries, states and cities by trigram similarity to $1.
// An exact alternate city name scores 1.0.
const lookupSQL = `WITH all_matches AS (
	SELECT 'country:' || id::text AS id, country_name AS name, 'country' AS type,
	       COALESCE(population, 0) AS population, COALESCE(iso_code, '') AS code, '{}'::text[] AS alt_names, geom,
	       similarity(country_name, $1) AS score
	FROM countries
	WHERE similarity(country_name, $1) > $2 OR iso_code ILIKE $1

	UNION ALL

	SELECT 'state:' || id::text, state_name, 'state',
	       0, COALESCE(state_code, ''), '{}'::text[], geom,
	       similarity(state_name, $1)
	FROM states
	WHERE similarity(state_name, $1) > $2 OR state_code ILIKE $1

	UNION ALL

	SELECT 'city:' || id::text, city_name, 'city',
	       COALESCE(population, 0), '', COALESCE(alt_names, '{}'), geom,
	       CASE WHEN $1 ILIKE ANY(alt_names) THEN 1.0 ELSE similarity(city_name, $1) END
	FROM cities
	WHERE similarity(city_name, $1) > $2 OR $1 ILIKE ANY(alt_names)
)
SELECT id, name, type, population, code, alt_names, score,
       ST_Y(ST_Centroid(geom)) AS lat, ST_X(ST_Centroid(geom)) AS lon
FROM all_matches
ORDER BY score DESC, population DESC
LIMIT 1`

var (
	latExpr = goqu.L("ST_Y(ST_Centroid(geom))")
	lonExpr = goqu.L("ST_X(ST_Centroid(geom))")
)

// GazetteerAdapter implements GazetteerRepository on PostgreSQL with the
// pg_trgm and PostGIS extensions.
type GazetteerAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewGazetteerAdapter creates a new gazetteer adapter
func NewGazetteerAdapter(client *postgres.Client) repositories.GazetteerRepository {
	return &GazetteerAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Lookup returns the best fuzzy match for term. Terms with a comma carry a
// qualifier ("Paris, Texas") the gazetteer cannot honour, so they never match.
func (a *GazetteerAdapter) Lookup(ctx context.Context, term string) (*entities.GazetteerMatch, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("term is required")
	}
	if strings.Contains(term, ",") {
		return nil, apperrors.NewNotFoundError("qualified place names are not in the gazetteer")
	}

	var (
		m        entities.GazetteerMatch
		altNames []string
	)
	err := a.client.DB().QueryRowContext(ctx, lookupSQL, term, MinSimilarity).Scan(
		&m.Place.ID,
		&m.Place.Name,
		&m.Place.Type,
		&m.Place.Population,
		&m.Place.Code,
		pq.Array(&altNames),
		&m.Score,
		&m.Place.Location.Latitude,
		&m.Place.Location.Longitude,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("no gazetteer match for " + term)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to look up gazetteer", err)
	}

	m.Place.AltNames = altNames
	return &m, nil
}

// Nearby returns cities within radiusKm of at, closest first
func (a *GazetteerAdapter) Nearby(ctx context.Context, at entities.Coordinates, radiusKm float64, limit int) ([]entities.GazetteerPlace, error) {
	if radiusKm <= 0 {
		return nil, apperrors.NewValidationError("radius must be positive")
	}
	if limit <= 0 {
		limit = 10
	}

	point := goqu.L("ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography", at.Longitude, at.Latitude)
	query, args, err := a.db.From("cities").
		Select(
			goqu.L("'city:' || id::text"),
			"city_name",
			"population",
			latExpr,
			lonExpr,
			goqu.L("ST_Distance(geom::geography, ?) / 1000", point).As("dist_km"),
		).
		Where(goqu.L("ST_DWithin(geom::geography, ?, ?)", point, radiusKm*1000)).
		Order(goqu.C("dist_km").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build nearby query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query nearby cities", err)
	}
	defer rows.Close()

	var places []entities.GazetteerPlace
	for rows.Next() {
		p := entities.GazetteerPlace{Type: entities.PlaceTypeCity}
		var distKm float64
		if err := rows.Scan(&p.ID, &p.Name, &p.Population, &p.Location.Latitude, &p.Location.Longitude, &distKm); err != nil {
			return nil, apperrors.NewInternalError("failed to scan nearby city", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read nearby cities", err)
	}

	return places, nil
}

// List pages through the gazetteer, largest places first
func (a *GazetteerAdapter) List(ctx context.Context, filter repositories.GazetteerFilter) ([]entities.GazetteerPlace, error) {
	var parts []*goqu.SelectDataset
	for _, t := range []string{entities.PlaceTypeCountry, entities.PlaceTypeState, entities.PlaceTypeCity} {
		if filter.Type != "" && filter.Type != t {
			continue
		}
		parts = append(parts, a.listSelect(t))
	}
	if len(parts) == 0 {
		return nil, apperrors.NewValidationError("unknown place type: " + filter.Type)
	}

	ds := parts[0]
	for _, p := range parts[1:] {
		ds = ds.UnionAll(p)
	}
	ds = a.db.From(ds.As("places")).Order(goqu.C("population").Desc(), goqu.C("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list gazetteer", err)
	}
	defer rows.Close()

	var places []entities.GazetteerPlace
	for rows.Next() {
		var (
			p        entities.GazetteerPlace
			code     sql.NullString
			altNames []string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Population, &code, pq.Array(&altNames), &p.Location.Latitude, &p.Location.Longitude); err != nil {
			return nil, apperrors.NewInternalError("failed to scan gazetteer place", err)
		}
		p.Code = code.String
		p.AltNames = altNames
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read gazetteer", err)
	}

	return places, nil
}

func (a *GazetteerAdapter) listSelect(placeType string) *goqu.SelectDataset {
	table, nameCol := "cities", "city_name"
	var population, code, altNames exp.Aliaseable = goqu.C("population"), goqu.L("NULL"), goqu.C("alt_names")
	switch placeType {
	case entities.PlaceTypeCountry:
		table, nameCol = "countries", "country_name"
		code, altNames = goqu.C("iso_code"), goqu.L("'{}'::text[]")
	case entities.PlaceTypeState:
		table, nameCol = "states", "state_name"
		population, code, altNames = goqu.L("0"), goqu.C("state_code"), goqu.L("'{}'::text[]")
	}

	return a.db.From(table).Select(
		goqu.L("? || id::text", placeType+":").As("id"),
		goqu.C(nameCol).As("name"),
		goqu.L("?", placeType).As("type"),
		population.As("population"),
		code.As("code"),
		altNames.As("alt_names"),
		latExpr.As("lat"),
		lonExpr.As("lon"),
	)
}
