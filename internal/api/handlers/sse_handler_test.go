package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geosight/dashboard/internal/api/handlers"
	"github.com/geosight/dashboard/internal/dashboard"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
)

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *entities.DashboardEvent
	published   []*entities.DashboardEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		subscribers: make(map[string][]chan *entities.DashboardEvent),
		published:   make([]*entities.DashboardEvent, 0),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.DashboardEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	channels := append([]chan *entities.DashboardEvent(nil), m.subscribers[channel]...)
	m.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DashboardEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.DashboardEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	subs := m.subscribers
	m.subscribers = make(map[string][]chan *entities.DashboardEvent)
	m.mu.Unlock()
	for _, channels := range subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	return nil
}

func (m *MockEventBus) PublishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.published)
}

func (m *MockEventBus) SubscriberCount(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[channel])
}

// stream runs StreamDashboard until fn returns, then disconnects the client
func stream(t *testing.T, handler *handlers.SSEHandler, sessionID string, fn func()) *httptest.ResponseRecorder {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest("GET", "/api/stream/dashboard/"+sessionID, nil)
	req.SetPathValue("id", sessionID)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.StreamDashboard(w, req)
		close(done)
	}()

	// Wait a bit for connection to establish
	time.Sleep(100 * time.Millisecond)
	fn()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not exit after cancel")
	}
	return w
}

func TestSSEHandler_StreamDashboard(t *testing.T) {
	eventBus := NewMockEventBus()
	sessions := dashboard.NewSessionManager(time.Minute, nil, dashboard.Deps{})
	handler := handlers.NewSSEHandler(eventBus, sessions)

	t.Run("should establish SSE connection with a snapshot", func(t *testing.T) {
		session := sessions.Create(context.Background())

		w := stream(t, handler, session.ID, func() {})

		result := w.Result()
		if result.Header.Get("Content-Type") != "text/event-stream" {
			t.Errorf("Expected Content-Type text/event-stream, got %s", result.Header.Get("Content-Type"))
		}
		if result.Header.Get("Cache-Control") != "no-cache" {
			t.Errorf("Expected Cache-Control no-cache, got %s", result.Header.Get("Cache-Control"))
		}
		body := w.Body.String()
		if !strings.Contains(body, "event: connected") {
			t.Errorf("Expected connected event, got %q", body)
		}
		if !strings.Contains(body, session.ID) {
			t.Errorf("Expected snapshot of session %s, got %q", session.ID, body)
		}
	})

	t.Run("should forward scene events", func(t *testing.T) {
		session := sessions.Create(context.Background())
		channel := providers.GetDashboardChannel(session.ID)

		w := stream(t, handler, session.ID, func() {
			if eventBus.SubscriberCount(channel) != 1 {
				t.Errorf("Expected one subscriber on %s", channel)
			}
			snap := session.Scene.Snapshot()
			snap.Query = "Weather in Chennai"
			eventBus.Publish(context.Background(), channel, entities.NewDashboardEvent(session.ID, entities.DashboardEventTypeSceneUpdated, &snap))

			// Wait for event to be sent
			time.Sleep(200 * time.Millisecond)
		})

		if eventBus.PublishedCount() == 0 {
			t.Error("Expected event to be published")
		}
		body := w.Body.String()
		if !strings.Contains(body, "event: scene_updated") {
			t.Errorf("Expected scene_updated event, got %q", body)
		}
		if !strings.Contains(body, "Weather in Chennai") {
			t.Errorf("Expected forwarded scene, got %q", body)
		}
	})

	t.Run("should return not found for unknown session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stream/dashboard/missing", nil)
		req.SetPathValue("id", "missing")
		w := httptest.NewRecorder()

		handler.StreamDashboard(w, req)

		result := w.Result()
		if result.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", result.StatusCode)
		}
	})

	if handler.GetClientCount() != 0 {
		t.Errorf("Expected all clients to be unregistered, got %d", handler.GetClientCount())
	}
}
