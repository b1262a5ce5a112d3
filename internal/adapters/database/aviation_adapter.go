package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	apperrors "github.com/geosight/dashboard/pkg/errors"
)

// AviationAdapter implements AviationRepository over the airports and
// flight_routes tables
type AviationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAviationAdapter creates a new aviation adapter
func NewAviationAdapter(client *postgres.Client) repositories.AviationRepository {
	return &AviationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// NearestAirport orders by the PostGIS KNN operator so the gist index on
// geom answers it
func (a *AviationAdapter) NearestAirport(ctx context.Context, at entities.Coordinates) (*entities.Airport, error) {
	point := goqu.L("ST_SetSRID(ST_MakePoint(?, ?), 4326)", at.Longitude, at.Latitude)
	query, args, err := a.db.From("airports").
		Select(
			"iata_code",
			"name",
			goqu.L("COALESCE(city_name, '')"),
			goqu.L("ST_Y(geom)"),
			goqu.L("ST_X(geom)"),
		).
		Where(goqu.C("iata_code").IsNotNull()).
		Order(goqu.L("geom <-> ?", point).Asc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build airport query", err)
	}

	var ap entities.Airport
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&ap.IATA,
		&ap.Name,
		&ap.City,
		&ap.Location.Latitude,
		&ap.Location.Longitude,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("no airports loaded")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find nearest airport", err)
	}
	return &ap, nil
}

// FindFlight returns the first direct route from origin to dest
func (a *AviationAdapter) FindFlight(ctx context.Context, origin, dest string) (*entities.Flight, error) {
	origin = strings.ToUpper(strings.TrimSpace(origin))
	dest = strings.ToUpper(strings.TrimSpace(dest))
	if origin == "" || dest == "" {
		return nil, apperrors.NewValidationError("origin and destination airports are required")
	}

	query, args, err := a.db.From("flight_routes").
		Select(goqu.L("COALESCE(airline_code, '')")).
		Where(goqu.Ex{"source_iata": origin, "dest_iata": dest}).
		Order(goqu.C("id").Asc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build flight query", err)
	}

	f := entities.Flight{Origin: origin, Destination: dest}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&f.Airline)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("no direct flight from " + origin + " to " + dest)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find flight", err)
	}
	return &f, nil
}
