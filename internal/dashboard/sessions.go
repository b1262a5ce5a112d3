package dashboard

import (
	"context"
	"time"

	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/geosight/dashboard/internal/infrastructure/observability"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// Session is one open dashboard: the scene it renders into and the
// coordinator driving it
type Session struct {
	ID          string
	Scene       *Scene
	Coordinator *Coordinator
	CreatedAt   time.Time
}

// SessionManager keeps sessions alive while they are used. A session that
// is not touched for the TTL expires and stops publishing.
type SessionManager struct {
	sessions *gocache.Cache
	bus      providers.EventBus
	deps     Deps
}

// NewSessionManager creates a manager. deps is the template every session's
// coordinator is built from; bus may be nil.
func NewSessionManager(ttl time.Duration, bus providers.EventBus, deps Deps) *SessionManager {
	sessions := gocache.New(ttl, ttl/2)
	metrics := deps.Metrics
	sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Scene.Close()
		}
		observability.SessionClosed(context.Background(), metrics)
		log.Debug().Str("session_id", id).Msg("Dashboard session closed")
	})

	return &SessionManager{
		sessions: sessions,
		bus:      bus,
		deps:     deps,
	}
}

// Create opens a new session
func (m *SessionManager) Create(ctx context.Context) *Session {
	id := uuid.NewString()
	deps := m.deps
	deps.SessionID = id

	scene := NewScene(id, m.bus)
	s := &Session{
		ID:          id,
		Scene:       scene,
		Coordinator: NewCoordinator(scene, deps),
		CreatedAt:   time.Now(),
	}
	m.sessions.SetDefault(id, s)

	observability.SessionOpened(ctx, m.deps.Metrics)
	log.Info().Str("session_id", id).Msg("Dashboard session opened")
	return s
}

// Get returns the session and extends its lifetime
func (m *SessionManager) Get(id string) (*Session, error) {
	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("dashboard session not found")
	}
	s := v.(*Session)
	m.sessions.SetDefault(id, s)
	return s, nil
}

// Close ends a session immediately
func (m *SessionManager) Close(id string) error {
	if _, ok := m.sessions.Get(id); !ok {
		return apperrors.NewNotFoundError("dashboard session not found")
	}
	m.sessions.Delete(id)
	return nil
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	return m.sessions.ItemCount()
}
