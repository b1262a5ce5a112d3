package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/adapters/providers/geocoding"
	"github.com/geosight/dashboard/internal/adapters/providers/routing"
	"github.com/geosight/dashboard/internal/adapters/providers/weather"
	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/infrastructure/clients/resolveapi"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		apiURL string
		mode   string
	)
	flag.StringVar(&apiURL, "api", "", "base URL of the resolve API (default RESOLVE_API_URL)")
	flag.StringVar(&mode, "mode", "", "travel mode to switch to after the first search (DRIVING, WALKING, AIR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitConsoleLogger("geosight-cli", cfg.Env)
	if apiURL == "" {
		apiURL = cfg.ResolveAPI.URL
	}

	var switchTo entities.TravelMode
	if mode != "" {
		if switchTo, err = entities.ParseTravelMode(mode); err != nil {
			log.Fatal().Err(err).Msg("Invalid mode")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	memCache := cache.NewMemoryAdapter(time.Hour, 10*time.Minute)
	geocoder, err := geocoding.NewProvider(cfg.Geocoding, memCache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create geocoder")
	}
	router, err := routing.NewProvider(cfg.Routing, memCache, geocoder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create router")
	}

	sessionID := uuid.NewString()
	scene := dashboard.NewScene(sessionID, nil)
	coordinator := dashboard.NewCoordinator(scene, dashboard.Deps{
		SessionID:  sessionID,
		Dispatcher: resolveapi.NewClient(apiURL, cfg.ResolveAPI.Timeout),
		Geocoder:   geocoder,
		Router:     router,
		Weather: weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{
			ForecastURL:   cfg.Weather.ForecastURL,
			AirQualityURL: cfg.Weather.AirQualityURL,
			Cache:         memCache,
			CacheTTL:      cfg.Weather.CacheTTL,
		}),
		GeocodeConcurrency: cfg.Dashboard.GeocodeConcurrency,
	})

	run := func(query string) {
		// failures already surface as notices on the scene
		_ = coordinator.Search(ctx, query)
		if switchTo != "" && coordinator.ActiveMode() != "" && coordinator.ActiveMode() != switchTo {
			_ = coordinator.SwitchMode(ctx, switchTo)
		}
		printScene(os.Stdout, scene.Snapshot())
	}

	if query := strings.TrimSpace(strings.Join(flag.Args(), " ")); query != "" {
		run(query)
		return
	}

	// interactive: one query per line, ":mode X" switches the active route
	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
		case line == ":quit" || line == ":q":
			return
		case strings.HasPrefix(line, ":mode "):
			m, err := entities.ParseTravelMode(strings.TrimPrefix(line, ":mode "))
			if err != nil {
				fmt.Println(err)
				break
			}
			_ = coordinator.SwitchMode(ctx, m)
			printScene(os.Stdout, scene.Snapshot())
		default:
			run(line)
		}
		if ctx.Err() != nil {
			return
		}
		fmt.Print("> ")
	}
}

func printScene(w io.Writer, sc entities.Scene) {
	fmt.Fprintf(w, "\n%s [%s] %s\n", sc.Query, sc.Intent, sc.State)

	for _, m := range sc.Markers {
		fmt.Fprintf(w, "  * %-24s %9.4f, %9.4f\n", m.Title, m.Position.Latitude, m.Position.Longitude)
	}
	if sc.RouteStats != nil {
		est := ""
		if sc.RouteStats.Estimated {
			est = " (estimated)"
		}
		fmt.Fprintf(w, "  %s: %s, %s%s\n", sc.RouteStats.Mode, sc.RouteStats.Distance, sc.RouteStats.Duration, est)
	}
	if n := len(sc.FlightPaths); n > 0 {
		fmt.Fprintf(w, "  %s drawn\n", english.Plural(n, "flight path", ""))
	}
	for _, c := range sc.Cards {
		fmt.Fprintf(w, "  [%s] %s\n", c.Kind, c.Title)
		if c.Text != "" {
			fmt.Fprintf(w, "      %s\n", c.Text)
		}
		if c.Weather != nil {
			fmt.Fprintf(w, "      %.1f°C, %s\n", c.Weather.Temperature, c.Weather.ConditionText)
		}
	}
	for _, n := range sc.Notices {
		fmt.Fprintf(w, "  ! %s: %s (%s)\n", n.Level, n.Message, humanize.Time(n.At))
	}
}
