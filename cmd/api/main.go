package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/adapters/database"
	"github.com/geosight/dashboard/internal/adapters/events"
	"github.com/geosight/dashboard/internal/adapters/providers/analyzer"
	"github.com/geosight/dashboard/internal/adapters/providers/geocoding"
	"github.com/geosight/dashboard/internal/adapters/providers/routing"
	"github.com/geosight/dashboard/internal/adapters/providers/weather"
	"github.com/geosight/dashboard/internal/adapters/search"
	"github.com/geosight/dashboard/internal/api/handlers"
	"github.com/geosight/dashboard/internal/api/middleware"
	"github.com/geosight/dashboard/internal/api/routes"
	"github.com/geosight/dashboard/internal/application/services"
	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/domain/repositories"
	"github.com/geosight/dashboard/internal/infrastructure/clients/postgres"
	"github.com/geosight/dashboard/internal/infrastructure/clients/redis"
	"github.com/geosight/dashboard/internal/infrastructure/clients/typesense"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"github.com/geosight/dashboard/pkg/config"
	"github.com/geosight/dashboard/pkg/secrets"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Secrets from Vault land in the environment before configuration is read
	if res, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv("")); err != nil {
		log.Warn().Err(err).Msg("Failed to load secrets from Vault")
	} else if res.Enabled {
		log.Info().Str("path", res.Path).Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("Loaded secrets from Vault")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Redis backs the cache and the event bus; without it both stay in process
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	checks := map[string]handlers.HealthCheck{}
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache and event bus")
		cacheProvider = cache.NewMemoryAdapter(10*time.Minute, 5*time.Minute)
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		checks["redis"] = redisClient.Ping
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
	}

	var (
		gazetteer repositories.GazetteerRepository
		analytics *services.QueryAnalyticsService
		trips     *services.TripPlannerService
	)
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("Gazetteer database unavailable, resolving through the geocoder only")
		} else {
			defer pgClient.Close()
			gazetteer = database.NewGazetteerAdapter(pgClient)
			checks["postgres"] = pgClient.Ping
			analytics = services.NewQueryAnalyticsService(database.NewQueryLogAdapter(pgClient))
			trips = services.NewTripPlannerService(database.NewAviationAdapter(pgClient))
		}
	}

	var placeIndex repositories.PlaceIndex
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, place index disabled")
		} else {
			if err := tsClient.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Failed to init Typesense schema")
			}
			placeIndex = search.NewPlaceIndexAdapter(tsClient)
			checks["typesense"] = tsClient.Ping
		}
	}

	geocoder, err := geocoding.NewProvider(cfg.Geocoding, cacheProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create geocoder")
	}
	router, err := routing.NewProvider(cfg.Routing, cacheProvider, geocoder)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create router")
	}
	weatherProvider := weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{
		ForecastURL:   cfg.Weather.ForecastURL,
		AirQualityURL: cfg.Weather.AirQualityURL,
		Cache:         cacheProvider,
		CacheTTL:      cfg.Weather.CacheTTL,
	})
	queryAnalyzer := analyzer.NewProvider(ctx, cfg.Gemini, cacheProvider)

	resolveDeps := services.ResolveDeps{
		Analyzer:  queryAnalyzer,
		Gazetteer: gazetteer,
		Index:     placeIndex,
		Geocoder:  geocoder,
		Weather:   weatherProvider,
		Metrics:   metrics,
	}
	if analytics != nil {
		resolveDeps.Tracker = analytics
	}
	if trips != nil {
		resolveDeps.Trips = trips
	}
	resolveService := services.NewResolveService(resolveDeps)

	if cfg.Dashboard.WarmCacheOnStart {
		services.NewCacheWarmingService(geocoder, gazetteer, cfg.Dashboard.WarmCacheLimit).
			StartPeriodicWarming(ctx, cfg.Dashboard.WarmCacheInterval)
	}

	sessions := dashboard.NewSessionManager(cfg.Dashboard.SessionTTL, eventBus, dashboard.Deps{
		Dispatcher:         resolveService,
		Geocoder:           geocoder,
		Router:             router,
		Weather:            weatherProvider,
		Metrics:            metrics,
		GeocodeConcurrency: cfg.Dashboard.GeocodeConcurrency,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	if err := rateLimiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		log.Fatal().Err(err).Msg("Invalid TRUSTED_PROXIES")
	}

	apiRouter := routes.NewRouter(
		handlers.NewResolveHandler(resolveService),
		handlers.NewGeocodingHandler(geocoder),
		handlers.NewMapsHandler(cfg.Dashboard.StaticMapsAPIKey, cacheProvider, sessions),
		handlers.NewDashboardHandler(sessions),
		handlers.NewSSEHandler(eventBus, sessions),
		rateLimiter,
		middleware.NewCacheMiddleware(cacheProvider),
		cfg.Server.AllowedOrigins,
		metrics,
	)
	apiRouter.WithHealth(handlers.NewHealthHandler(checks, 2*time.Second))
	if analytics != nil {
		apiRouter.WithAnalytics(handlers.NewAnalyticsHandler(analytics))
	}

	// No write timeout: dashboard streams stay open
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           apiRouter.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")

	// Cancelling ctx ends open streams so Shutdown does not wait on them
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}
	if analytics != nil {
		analytics.Wait()
	}

	log.Info().Int("open_sessions", sessions.Count()).Msg("Server stopped")
}
