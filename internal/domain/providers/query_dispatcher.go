package providers

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// QueryDispatcher sends a raw query to the resolve capability
type QueryDispatcher interface {
	Resolve(ctx context.Context, query string) (*entities.ResolveResult, error)
}
