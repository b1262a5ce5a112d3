package geocoding

import (
	"fmt"

	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/pkg/config"
)

// NewProvider builds the geocoder selected by cfg.Provider
func NewProvider(cfg config.GeocodingConfig, cache providers.CacheProvider) (providers.GeocodingProvider, error) {
	switch cfg.Provider {
	case "google":
		return NewGoogleProvider(cfg.APIKey, cache, cfg.CacheTTL), nil
	case "nominatim":
		return NewNominatimProvider(NominatimOptions{
			BaseURL:           cfg.NominatimURL,
			UserAgent:         cfg.UserAgent,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Cache:             cache,
			CacheTTL:          cfg.CacheTTL,
		}), nil
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown geocoding provider %q", cfg.Provider)
	}
}
