package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	Geocoding  GeocodingConfig
	Routing    RoutingConfig
	Weather    WeatherConfig
	Gemini     GeminiConfig
	Dashboard  DashboardConfig
	RateLimit  RateLimitConfig
	ResolveAPI ResolveAPIConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// GeocodingConfig selects and configures the geocoding provider.
// Provider is one of "google", "nominatim" or "mock".
type GeocodingConfig struct {
	Provider          string
	APIKey            string
	NominatimURL      string
	UserAgent         string
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// RoutingConfig selects the directions provider ("google" or "mock").
type RoutingConfig struct {
	Provider string
	APIKey   string
	CacheTTL time.Duration
}

// WeatherConfig holds Open-Meteo endpoints
type WeatherConfig struct {
	ForecastURL   string
	AirQualityURL string
	CacheTTL      time.Duration
}

// GeminiConfig holds LLM configuration for query analysis
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DashboardConfig holds per-session dashboard settings
type DashboardConfig struct {
	SessionTTL         time.Duration
	GeocodeConcurrency int
	StaticMapsAPIKey   string

	// Geocode cache warming at startup; a zero interval warms once
	WarmCacheOnStart  bool
	WarmCacheInterval time.Duration
	WarmCacheLimit    int
}

// RateLimitConfig holds the per-IP limiter for the resolve endpoint.
// Only TrustedProxies may set the client address through X-Forwarded-For.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	TrustedProxies    []string
}

// ResolveAPIConfig points dashboard clients at a remote resolve endpoint.
type ResolveAPIConfig struct {
	URL     string
	Timeout time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "geosight"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Geocoding: GeocodingConfig{
			Provider:          getEnv("GEOCODING_PROVIDER", "mock"),
			APIKey:            getEnv("GOOGLE_MAPS_API_KEY", ""),
			NominatimURL:      getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:         getEnv("NOMINATIM_USER_AGENT", "geosight-dashboard/1.0"),
			RequestsPerSecond: getEnvAsFloat("NOMINATIM_RPS", 1),
			CacheTTL:          getEnvAsDuration("GEOCODING_CACHE_TTL", 24*time.Hour),
		},
		Routing: RoutingConfig{
			Provider: getEnv("ROUTING_PROVIDER", "mock"),
			APIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			CacheTTL: getEnvAsDuration("ROUTING_CACHE_TTL", time.Hour),
		},
		Weather: WeatherConfig{
			ForecastURL:   getEnv("OPEN_METEO_URL", "https://api.open-meteo.com"),
			AirQualityURL: getEnv("OPEN_METEO_AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com"),
			CacheTTL:      getEnvAsDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 15*time.Second),
		},
		Dashboard: DashboardConfig{
			SessionTTL:         getEnvAsDuration("DASHBOARD_SESSION_TTL", time.Hour),
			GeocodeConcurrency: getEnvAsInt("DASHBOARD_GEOCODE_CONCURRENCY", 8),
			StaticMapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
			WarmCacheOnStart:   getEnvAsBool("CACHE_WARM_ON_START", false),
			WarmCacheInterval:  getEnvAsDuration("CACHE_WARM_INTERVAL", 0),
			WarmCacheLimit:     getEnvAsInt("CACHE_WARM_LIMIT", 50),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RESOLVE_RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RESOLVE_RATE_LIMIT_BURST", 10),
			TrustedProxies:    getEnvAsList("TRUSTED_PROXIES", nil),
		},
		ResolveAPI: ResolveAPIConfig{
			URL:     getEnv("RESOLVE_API_URL", "http://localhost:8080"),
			Timeout: getEnvAsDuration("RESOLVE_API_TIMEOUT", 30*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "geosight-dashboard"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Geocoding.Provider {
	case "google", "nominatim", "mock":
	default:
		return fmt.Errorf("unknown GEOCODING_PROVIDER %q", c.Geocoding.Provider)
	}
	switch c.Routing.Provider {
	case "google", "mock":
	default:
		return fmt.Errorf("unknown ROUTING_PROVIDER %q", c.Routing.Provider)
	}
	if c.Geocoding.Provider == "google" && c.Geocoding.APIKey == "" {
		return fmt.Errorf("GOOGLE_MAPS_API_KEY is required for the google geocoder")
	}
	if c.Routing.Provider == "google" && c.Routing.APIKey == "" {
		return fmt.Errorf("GOOGLE_MAPS_API_KEY is required for the google router")
	}
	if c.Dashboard.GeocodeConcurrency < 1 {
		c.Dashboard.GeocodeConcurrency = 1
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the HTTP listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
