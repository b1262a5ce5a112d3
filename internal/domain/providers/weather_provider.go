package providers

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// WeatherProvider reports conditions at a point
type WeatherProvider interface {
	// CurrentWeather returns current conditions
	CurrentWeather(ctx context.Context, at entities.Coordinates) (*entities.CurrentWeather, error)

	// RainfallHistory returns daily precipitation for the past days
	RainfallHistory(ctx context.Context, at entities.Coordinates, pastDays int) (*entities.RainfallHistory, error)

	// AirQuality returns the current US AQI
	AirQuality(ctx context.Context, at entities.Coordinates) (*entities.AirQuality, error)
}
