package entities

import (
	"time"

	"github.com/google/uuid"
)

// DashboardEventType represents the type of dashboard event
type DashboardEventType string

const (
	DashboardEventTypeSceneUpdated DashboardEventType = "scene_updated"
	DashboardEventTypeNotice       DashboardEventType = "notice"
)

// DashboardEvent is pushed to subscribers whenever a session's scene changes
type DashboardEvent struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	EventType DashboardEventType `json:"event_type"`
	Timestamp time.Time          `json:"timestamp"`
	Scene     *Scene             `json:"scene,omitempty"`
	Notice    *Notice            `json:"notice,omitempty"`
}

// NewDashboardEvent creates a new dashboard event
func NewDashboardEvent(sessionID string, eventType DashboardEventType, scene *Scene) *DashboardEvent {
	return &DashboardEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: time.Now(),
		Scene:     scene,
	}
}
