package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/dustin/go-humanize"
	"github.com/geosight/dashboard/internal/adapters/database"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type countrySeed struct {
	Name       string  `json:"name"`
	ISOCode    string  `json:"iso_code"`
	Population int64   `json:"population"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type stateSeed struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type airportSeed struct {
	IATA string  `json:"iata_code"`
	Name string  `json:"name"`
	City string  `json:"city_name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type flightSeed struct {
	Source  string `json:"source_iata"`
	Dest    string `json:"dest_iata"`
	Airline string `json:"airline_code"`
}

type citySeed struct {
	Name        string   `json:"name"`
	CountryCode string   `json:"country_code"`
	StateCode   string   `json:"state_code"`
	Population  int64    `json:"population"`
	AltNames    []string `json:"alt_names"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
}

// point stores centroids only; the lookup queries take ST_Centroid so
// real polygons can be loaded later without changing them.
func point(lat, lon float64) exp.LiteralExpression {
	return goqu.L("ST_SetSRID(ST_MakePoint(?, ?), 4326)", lon, lat)
}

func main() {
	var dir string
	var reset bool
	flag.StringVar(&dir, "dir", "config/seeds", "directory holding the gazetteer and aviation seed files")
	flag.BoolVar(&reset, "reset", os.Getenv("RESET_DB") == "true", "truncate gazetteer tables before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("geosight-seed", cfg.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, pgClient.DB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to create gazetteer schema")
	}

	if reset {
		log.Info().Msg("Truncating gazetteer tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE flight_routes, airports, cities, states, countries RESTART IDENTITY CASCADE`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	db := goqu.New("postgres", pgClient.DB())

	var countries []countrySeed
	mustLoad(filepath.Join(dir, "countries.json"), &countries)
	rows := make([]interface{}, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, goqu.Record{
			"country_name": c.Name,
			"iso_code":     c.ISOCode,
			"population":   c.Population,
			"geom":         point(c.Lat, c.Lon),
		})
	}
	insert(ctx, db, "countries", rows)

	var states []stateSeed
	mustLoad(filepath.Join(dir, "states.json"), &states)
	rows = make([]interface{}, 0, len(states))
	for _, s := range states {
		rows = append(rows, goqu.Record{
			"state_name":   s.Name,
			"state_code":   s.Code,
			"country_code": s.CountryCode,
			"geom":         point(s.Lat, s.Lon),
		})
	}
	insert(ctx, db, "states", rows)

	var cities []citySeed
	mustLoad(filepath.Join(dir, "cities.json"), &cities)
	rows = make([]interface{}, 0, len(cities))
	for _, c := range cities {
		alt := c.AltNames
		if alt == nil {
			alt = []string{}
		}
		rows = append(rows, goqu.Record{
			"city_name":    c.Name,
			"country_code": c.CountryCode,
			"state_code":   c.StateCode,
			"population":   c.Population,
			"alt_names":    pq.Array(alt),
			"geom":         point(c.Lat, c.Lon),
		})
	}
	insert(ctx, db, "cities", rows)

	var airports []airportSeed
	mustLoad(filepath.Join(dir, "airports.json"), &airports)
	rows = make([]interface{}, 0, len(airports))
	for _, a := range airports {
		rows = append(rows, goqu.Record{
			"iata_code": a.IATA,
			"name":      a.Name,
			"city_name": a.City,
			"geom":      point(a.Lat, a.Lon),
		})
	}
	insert(ctx, db, "airports", rows)

	var flights []flightSeed
	mustLoad(filepath.Join(dir, "flight_routes.json"), &flights)
	rows = make([]interface{}, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, goqu.Record{
			"source_iata":  f.Source,
			"dest_iata":    f.Dest,
			"airline_code": f.Airline,
		})
	}
	insert(ctx, db, "flight_routes", rows)

	log.Info().Msg("Seeding complete")
}

func mustLoad(path string, v interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read seed file")
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to parse seed file")
	}
}

// insert skips rows that already exist so seeding can be rerun
func insert(ctx context.Context, db *goqu.Database, table string, rows []interface{}) {
	if len(rows) == 0 {
		return
	}
	res, err := db.Insert(table).
		Prepared(true).
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		Executor().
		ExecContext(ctx)
	if err != nil {
		log.Fatal().Err(fmt.Errorf("seed %s: %w", table, err)).Msg("Failed to insert seed rows")
	}
	n, _ := res.RowsAffected()
	log.Info().
		Str("table", table).
		Str("inserted", humanize.Comma(n)).
		Int("skipped", len(rows)-int(n)).
		Msg("Seeded table")
}
