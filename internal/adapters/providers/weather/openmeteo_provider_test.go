package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geosight/dashboard/internal/adapters/cache"
	"github.com/geosight/dashboard/internal/adapters/providers/weather"
	"github.com/geosight/dashboard/internal/domain/entities"
	redisclient "github.com/geosight/dashboard/internal/infrastructure/clients/redis"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var delhi = entities.Coordinates{Latitude: 28.6139, Longitude: 77.209}

func newOpenMeteoServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		q := r.URL.Query()
		assert.Equal(t, "28.6139", q.Get("latitude"))
		assert.Equal(t, "77.2090", q.Get("longitude"))

		switch {
		case r.URL.Path == "/v1/forecast" && q.Get("current_weather") == "true":
			_, _ = w.Write([]byte(`{"current_weather":{"temperature":31.4,"windspeed":7.2,"weathercode":61}}`))
		case r.URL.Path == "/v1/forecast" && q.Get("daily") == "precipitation_sum":
			assert.Equal(t, "5", q.Get("past_days"))
			assert.Equal(t, "auto", q.Get("timezone"))
			_, _ = w.Write([]byte(`{"daily":{
				"time":["2026-07-10","2026-07-11","2026-07-12","2026-07-13","2026-07-14"],
				"precipitation_sum":[0.0,12.4,null,3.3,0.1]}}`))
		case r.URL.Path == "/v1/air-quality":
			assert.Equal(t, "us_aqi", q.Get("current"))
			_, _ = w.Write([]byte(`{"current":{"us_aqi":152.6}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOpenMeteoProvider(t *testing.T) {
	var hits int32
	server := newOpenMeteoServer(t, &hits)
	defer server.Close()

	p := weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{
		ForecastURL:   server.URL,
		AirQualityURL: server.URL + "/",
		HTTPClient:    server.Client(),
	})
	ctx := context.Background()

	w, err := p.CurrentWeather(ctx, delhi)
	require.NoError(t, err)
	assert.Equal(t, 31.4, w.Temperature)
	assert.Equal(t, 7.2, w.WindSpeed)
	assert.Equal(t, 61, w.WeatherCode)
	assert.Equal(t, "Rain", w.ConditionText)

	h, err := p.RainfallHistory(ctx, delhi, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-07-10", "2026-07-11", "2026-07-12", "2026-07-13", "2026-07-14"}, h.Dates)
	assert.Equal(t, []float64{0, 12.4, 0, 3.3, 0.1}, h.Values)

	aq, err := p.AirQuality(ctx, delhi)
	require.NoError(t, err)
	assert.Equal(t, 153, aq.USAQI)
	assert.Equal(t, "Unhealthy", aq.Category)

	_, err = p.RainfallHistory(ctx, delhi, 0)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestOpenMeteoProvider_CachesInRedis(t *testing.T) {
	var hits int32
	server := newOpenMeteoServer(t, &hits)
	defer server.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	p := weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{
		ForecastURL: server.URL,
		Cache:       cache.NewRedisAdapter(redisclient.NewFromRedis(rdb)),
		CacheTTL:    time.Minute,
		HTTPClient:  server.Client(),
	})

	for i := 0; i < 3; i++ {
		_, err := p.CurrentWeather(context.Background(), delhi)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	mr.FastForward(2 * time.Minute)
	_, err := p.CurrentWeather(context.Background(), delhi)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestOpenMeteoProvider_RetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":20,"windspeed":1,"weathercode":0}}`))
	}))
	defer server.Close()

	p := weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{ForecastURL: server.URL, HTTPClient: server.Client()})
	w, err := p.CurrentWeather(context.Background(), delhi)
	require.NoError(t, err)
	assert.Equal(t, "Clear sky", w.ConditionText)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestOpenMeteoProvider_DoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	p := weather.NewOpenMeteoProvider(weather.OpenMeteoOptions{ForecastURL: server.URL, HTTPClient: server.Client()})
	_, err := p.CurrentWeather(context.Background(), delhi)
	assert.Equal(t, apperrors.ErrorTypeExternal, apperrors.TypeOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
