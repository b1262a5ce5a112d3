package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/adapters/database"
	"github.com/geosight/dashboard/internal/adapters/providers/analyzer"
	"github.com/geosight/dashboard/internal/adapters/providers/geocoding"
	"github.com/geosight/dashboard/internal/application/services"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/evaluation"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	"github.com/geosight/dashboard/internal/infrastructure/clients/resolveapi"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		goldenPath string
		remoteURL  string
		minIntent  float64
		minRecall  float64
		verbose    bool
	)
	defaults := evaluation.DefaultGuardrails()
	flag.StringVar(&goldenPath, "golden", "config/golden_queries.json", "path to the golden query set")
	flag.StringVar(&remoteURL, "url", "", "evaluate a running resolve API instead of an in-process service")
	flag.Float64Var(&minIntent, "min-intent", defaults.MinIntentAccuracy, "minimum intent accuracy")
	flag.Float64Var(&minRecall, "min-recall", defaults.MinLocationRecall, "minimum average location recall")
	flag.BoolVar(&verbose, "v", false, "include per-query results in the output")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitConsoleLogger("geosight-evaluate", cfg.Env)

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("Invalid golden query set")
	}

	ctx := context.Background()
	dispatcher, cleanup := newDispatcher(ctx, cfg, remoteURL)
	defer cleanup()

	start := time.Now()
	summary, err := evaluation.NewRunner(dispatcher).Run(ctx, queries)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
	log.Info().
		Int("queries", summary.TotalQueries).
		Str("started", humanize.Time(start)).
		Dur("took", time.Since(start)).
		Msg("Evaluation complete")

	if !verbose {
		summary.Results = nil
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	guard := defaults
	guard.MinIntentAccuracy = minIntent
	guard.MinLocationRecall = minRecall
	if violations := evaluation.NewGuardrails(guard).Check(summary); len(violations) > 0 {
		for _, v := range violations {
			log.Error().Str("violation", v).Msg("Guardrail failed")
		}
		os.Exit(1)
	}
}

// newDispatcher points the run at a remote endpoint when url is set,
// otherwise it builds the resolve pipeline in process.
func newDispatcher(ctx context.Context, cfg *config.Config, url string) (providers.QueryDispatcher, func()) {
	if url != "" {
		log.Info().Str("url", url).Msg("Evaluating remote resolve API")
		return resolveapi.NewClient(url, cfg.ResolveAPI.Timeout), func() {}
	}

	cleanup := func() {}
	memCache := cache.NewMemoryAdapter(time.Hour, 10*time.Minute)

	var gazetteer repositories.GazetteerRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("Gazetteer database unavailable")
		} else {
			cleanup = func() { pgClient.Close() }
			gazetteer = database.NewGazetteerAdapter(pgClient)
		}
	}

	geocoder, err := geocoding.NewProvider(cfg.Geocoding, memCache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create geocoder")
	}

	return services.NewResolveService(services.ResolveDeps{
		Analyzer:  analyzer.NewProvider(ctx, cfg.Gemini, memCache),
		Gazetteer: gazetteer,
		Geocoder:  geocoder,
	}), cleanup
}
