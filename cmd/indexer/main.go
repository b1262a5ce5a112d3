package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/geosight/dashboard/internal/adapters/database"
	"github.com/geosight/dashboard/internal/adapters/search"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	"github.com/geosight/dashboard/internal/infrastructure/clients/typesense"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/rs/zerolog/log"
)

const pageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("geosight-indexer", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true"); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// indexOnce copies the whole gazetteer into the place index, largest
// places first
func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Str("collection", typesense.PlacesCollection).Msg("Resetting place index")
		if err := tsClient.ResetSchema(ctx); err != nil {
			return err
		}
	} else if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	gazetteer := database.NewGazetteerAdapter(pgClient)
	index := search.NewPlaceIndexAdapter(tsClient)

	start := time.Now()
	total := 0
	for offset := 0; ; offset += pageSize {
		places, err := gazetteer.List(ctx, repositories.GazetteerFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(places) == 0 {
			break
		}
		if err := index.Upsert(ctx, places); err != nil {
			return err
		}
		total += len(places)
		log.Debug().Int("indexed", total).Msg("Indexed gazetteer page")

		if len(places) < pageSize {
			break
		}
	}

	log.Info().
		Str("places", humanize.Comma(int64(total))).
		Dur("took", time.Since(start)).
		Msg("Place index rebuilt")
	return nil
}
