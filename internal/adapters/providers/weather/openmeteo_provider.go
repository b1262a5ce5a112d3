package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/geosight/dashboard/pkg/retry"
	"github.com/rs/zerolog/log"
)

const (
	defaultForecastURL   = "https://api.open-meteo.com"
	defaultAirQualityURL = "https://air-quality-api.open-meteo.com"
	defaultHTTPTimeout   = 8 * time.Second
	weatherCachePrefix   = "weather:v1:"
)

// OpenMeteoProvider implements WeatherProvider with the Open-Meteo forecast
// and air-quality APIs. Neither needs an API key.
type OpenMeteoProvider struct {
	forecastURL   string
	airQualityURL string
	httpClient    *http.Client
	cache         providers.CacheProvider
	cacheTTL      time.Duration
	retryConfig   retry.Config
}

// OpenMeteoOptions configures an OpenMeteoProvider
type OpenMeteoOptions struct {
	ForecastURL   string
	AirQualityURL string
	Cache         providers.CacheProvider
	CacheTTL      time.Duration
	HTTPClient    *http.Client
}

// NewOpenMeteoProvider creates a weather provider
func NewOpenMeteoProvider(opts OpenMeteoOptions) *OpenMeteoProvider {
	if strings.TrimSpace(opts.ForecastURL) == "" {
		opts.ForecastURL = defaultForecastURL
	}
	if strings.TrimSpace(opts.AirQualityURL) == "" {
		opts.AirQualityURL = defaultAirQualityURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OpenMeteoProvider{
		forecastURL:   strings.TrimRight(opts.ForecastURL, "/"),
		airQualityURL: strings.TrimRight(opts.AirQualityURL, "/"),
		httpClient:    opts.HTTPClient,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		retryConfig: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    200 * time.Millisecond,
			MaxDelay:        time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 15 * time.Second,
		},
	}
}

// CurrentWeather returns current conditions at a point
func (p *OpenMeteoProvider) CurrentWeather(ctx context.Context, at entities.Coordinates) (*entities.CurrentWeather, error) {
	key := cache.Key(weatherCachePrefix+"current:", coordKey(at))
	var cached entities.CurrentWeather
	if cache.GetJSON(ctx, p.cache, key, &cached) {
		return &cached, nil
	}

	params := pointParams(at)
	params.Set("current_weather", "true")

	var payload struct {
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := p.getJSON(ctx, p.forecastURL+"/v1/forecast", params, &payload); err != nil {
		return nil, err
	}
	if payload.CurrentWeather == nil {
		return nil, apperrors.NewExternalError("forecast response has no current weather", nil)
	}

	w := &entities.CurrentWeather{
		Temperature:   payload.CurrentWeather.Temperature,
		WindSpeed:     payload.CurrentWeather.WindSpeed,
		WeatherCode:   payload.CurrentWeather.WeatherCode,
		ConditionText: entities.ConditionText(payload.CurrentWeather.WeatherCode),
	}
	cache.SetJSON(ctx, p.cache, key, w, p.cacheTTL)
	return w, nil
}

// RainfallHistory returns daily precipitation totals for the past days, oldest first
func (p *OpenMeteoProvider) RainfallHistory(ctx context.Context, at entities.Coordinates, pastDays int) (*entities.RainfallHistory, error) {
	if pastDays < 1 {
		return nil, apperrors.NewValidationError("pastDays must be positive")
	}

	key := cache.Key(weatherCachePrefix+"rain:", coordKey(at), strconv.Itoa(pastDays))
	var cached entities.RainfallHistory
	if cache.GetJSON(ctx, p.cache, key, &cached) {
		return &cached, nil
	}

	params := pointParams(at)
	params.Set("daily", "precipitation_sum")
	params.Set("past_days", strconv.Itoa(pastDays))
	params.Set("forecast_days", "0")
	params.Set("timezone", "auto")

	var payload struct {
		Daily *struct {
			Time             []string   `json:"time"`
			PrecipitationSum []*float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}
	if err := p.getJSON(ctx, p.forecastURL+"/v1/forecast", params, &payload); err != nil {
		return nil, err
	}
	if payload.Daily == nil || len(payload.Daily.Time) != len(payload.Daily.PrecipitationSum) {
		return nil, apperrors.NewExternalError("forecast response has malformed daily data", nil)
	}

	h := &entities.RainfallHistory{
		Dates:  append([]string{}, payload.Daily.Time...),
		Values: make([]float64, len(payload.Daily.PrecipitationSum)),
	}
	for i, v := range payload.Daily.PrecipitationSum {
		if v != nil {
			h.Values[i] = *v
		}
	}
	cache.SetJSON(ctx, p.cache, key, h, p.cacheTTL)
	return h, nil
}

// AirQuality returns the current US AQI at a point
func (p *OpenMeteoProvider) AirQuality(ctx context.Context, at entities.Coordinates) (*entities.AirQuality, error) {
	key := cache.Key(weatherCachePrefix+"aqi:", coordKey(at))
	var cached entities.AirQuality
	if cache.GetJSON(ctx, p.cache, key, &cached) {
		return &cached, nil
	}

	params := pointParams(at)
	params.Set("current", "us_aqi")

	var payload struct {
		Current *struct {
			USAQI *float64 `json:"us_aqi"`
		} `json:"current"`
	}
	if err := p.getJSON(ctx, p.airQualityURL+"/v1/air-quality", params, &payload); err != nil {
		return nil, err
	}
	if payload.Current == nil || payload.Current.USAQI == nil {
		return nil, apperrors.NewExternalError("air quality response has no us_aqi", nil)
	}

	aqi := int(*payload.Current.USAQI + 0.5)
	aq := &entities.AirQuality{USAQI: aqi, Category: entities.AQICategory(aqi)}
	cache.SetJSON(ctx, p.cache, key, aq, p.cacheTTL)
	return aq, nil
}

// getJSON fetches endpoint and decodes the body into out. Server errors and
// transport failures are retried; 4xx answers are not.
func (p *OpenMeteoProvider) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := endpoint + "?" + params.Encode()

	err := retry.DoWithLog(ctx, p.retryConfig, "open-meteo", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to build weather request: %w", err))
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return retry.Permanent(apperrors.NewExternalError(fmt.Sprintf("weather request returned status %d", resp.StatusCode), nil))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(apperrors.NewExternalError("failed to decode weather response", err))
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Weather request failed, retrying")
	})

	var perm *retry.PermanentError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &perm):
		return perm.Err
	default:
		return apperrors.NewExternalError("weather request failed", err)
	}
}

func pointParams(at entities.Coordinates) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', 4, 64))
	return params
}

// coordKey rounds to roughly a kilometre so nearby lookups share a cache entry
func coordKey(at entities.Coordinates) string {
	return fmt.Sprintf("%.2f,%.2f", at.Latitude, at.Longitude)
}
