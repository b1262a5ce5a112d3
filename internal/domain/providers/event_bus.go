package providers

import (
	"context"

	"github.com/geosight/dashboard/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DashboardEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DashboardEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelDashboardPrefix is the prefix for per-session channels
const EventChannelDashboardPrefix = "dashboard:"

// GetDashboardChannel returns the channel name for a dashboard session
func GetDashboardChannel(sessionID string) string {
	return EventChannelDashboardPrefix + sessionID
}
