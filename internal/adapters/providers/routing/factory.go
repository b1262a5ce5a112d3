package routing

import (
	"fmt"

	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/pkg/config"
)

// NewProvider builds the router selected by cfg.Provider. The mock router
// places stops with geocoder.
func NewProvider(cfg config.RoutingConfig, cache providers.CacheProvider, geocoder providers.GeocodingProvider) (providers.RoutingProvider, error) {
	switch cfg.Provider {
	case "google":
		return NewGoogleProvider(cfg.APIKey, cache, cfg.CacheTTL), nil
	case "mock", "":
		return NewMockProvider(geocoder), nil
	default:
		return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
	}
}
