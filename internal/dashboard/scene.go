package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

const (
	maxNotices     = 20
	publishTimeout = 2 * time.Second
)

// Scene is an in-memory Surface. Readers take snapshots; when an event bus
// is attached every change is published, coalescing bursts into one event.
type Scene struct {
	mu      sync.RWMutex
	scene   entities.Scene
	pending []entities.Notice

	bus       providers.EventBus
	signal    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewScene creates an empty scene. bus may be nil.
func NewScene(sessionID string, bus providers.EventBus) *Scene {
	s := &Scene{
		scene: entities.Scene{
			SessionID: sessionID,
			State:     entities.DashboardStateIdle,
			UpdatedAt: time.Now(),
		},
		bus:    bus,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if bus != nil {
		go s.publishLoop()
	}
	return s
}

// Close stops publishing
func (s *Scene) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Snapshot returns a deep copy of the current scene
func (s *Scene) Snapshot() entities.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneScene(s.scene)
}

func (s *Scene) update(fn func(sc *entities.Scene)) {
	s.mu.Lock()
	fn(&s.scene)
	s.scene.Version++
	s.scene.UpdatedAt = time.Now()
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Scene) publishLoop() {
	channel := providers.GetDashboardChannel(s.scene.SessionID)
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}

		s.mu.Lock()
		notices := s.pending
		s.pending = nil
		snap := cloneScene(s.scene)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		for i := range notices {
			ev := entities.NewDashboardEvent(snap.SessionID, entities.DashboardEventTypeNotice, nil)
			ev.Notice = &notices[i]
			if err := s.bus.Publish(ctx, channel, ev); err != nil {
				log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("Failed to publish notice")
			}
		}
		if err := s.bus.Publish(ctx, channel, entities.NewDashboardEvent(snap.SessionID, entities.DashboardEventTypeSceneUpdated, &snap)); err != nil {
			log.Warn().Err(err).Str("session_id", snap.SessionID).Msg("Failed to publish scene update")
		}
		cancel()
	}
}

// SetState implements Surface
func (s *Scene) SetState(state entities.DashboardState) {
	s.update(func(sc *entities.Scene) { sc.State = state })
}

// SetLoading implements Surface
func (s *Scene) SetLoading(loading bool) {
	s.update(func(sc *entities.Scene) { sc.Loading = loading })
}

// Reset implements Surface
func (s *Scene) Reset(query string, intent entities.Intent) {
	s.update(func(sc *entities.Scene) {
		sc.Query = query
		sc.Intent = intent
		sc.Markers = nil
		sc.Highlights = nil
		sc.Camera = nil
		sc.Directions = nil
		sc.FlightPaths = nil
		sc.RouteStats = nil
		sc.ModeSelector = entities.ModeSelector{}
		sc.Cards = nil
	})
}

// AddMarker implements Surface
func (s *Scene) AddMarker(marker entities.Marker) {
	s.update(func(sc *entities.Scene) { sc.Markers = append(sc.Markers, marker) })
}

// SetHighlights implements Surface
func (s *Scene) SetHighlights(placeIDs []string) {
	ids := cloneSlice(placeIDs)
	s.update(func(sc *entities.Scene) { sc.Highlights = ids })
}

// FitBounds implements Surface
func (s *Scene) FitBounds(bounds entities.Bounds) {
	s.update(func(sc *entities.Scene) { sc.Camera = &bounds })
}

// ClearRoute implements Surface
func (s *Scene) ClearRoute() {
	s.update(func(sc *entities.Scene) {
		sc.Directions = nil
		sc.FlightPaths = nil
		sc.RouteStats = nil
		sc.Markers = nil
	})
}

// DrawDirections implements Surface
func (s *Scene) DrawDirections(directions *entities.Directions) {
	d := cloneDirections(directions)
	s.update(func(sc *entities.Scene) { sc.Directions = d })
}

// DrawFlightPath implements Surface
func (s *Scene) DrawFlightPath(path entities.FlightPath) {
	path.Path = cloneSlice(path.Path)
	s.update(func(sc *entities.Scene) { sc.FlightPaths = append(sc.FlightPaths, path) })
}

// ShowRouteStats implements Surface
func (s *Scene) ShowRouteStats(stats entities.RouteStats) {
	s.update(func(sc *entities.Scene) { sc.RouteStats = &stats })
}

// ShowModeSelector implements Surface
func (s *Scene) ShowModeSelector(active entities.TravelMode) {
	s.update(func(sc *entities.Scene) {
		sc.ModeSelector = entities.ModeSelector{
			Visible: true,
			Active:  active,
			Modes:   cloneSlice(entities.TravelModes),
		}
	})
}

// RenderCards implements Surface
func (s *Scene) RenderCards(cards []entities.Card) {
	cp := cloneCards(cards)
	s.update(func(sc *entities.Scene) { sc.Cards = cp })
}

// Notify implements Surface. Only the most recent notices are kept.
func (s *Scene) Notify(level entities.NoticeLevel, message string) {
	notice := entities.Notice{Level: level, Message: message, At: time.Now()}
	s.update(func(sc *entities.Scene) {
		sc.Notices = append(sc.Notices, notice)
		if len(sc.Notices) > maxNotices {
			sc.Notices = sc.Notices[len(sc.Notices)-maxNotices:]
		}
		if s.bus != nil {
			s.pending = append(s.pending, notice)
		}
	})
}

func cloneScene(in entities.Scene) entities.Scene {
	out := in
	out.Markers = cloneSlice(in.Markers)
	out.Highlights = cloneSlice(in.Highlights)
	if in.Camera != nil {
		c := *in.Camera
		out.Camera = &c
	}
	out.Directions = cloneDirections(in.Directions)
	out.FlightPaths = make([]entities.FlightPath, len(in.FlightPaths))
	for i, fp := range in.FlightPaths {
		fp.Path = cloneSlice(fp.Path)
		out.FlightPaths[i] = fp
	}
	if in.RouteStats != nil {
		rs := *in.RouteStats
		out.RouteStats = &rs
	}
	out.ModeSelector.Modes = cloneSlice(in.ModeSelector.Modes)
	out.Cards = cloneCards(in.Cards)
	out.Notices = cloneSlice(in.Notices)
	return out
}

// cloneSlice copies in; the result is never nil so snapshots encode as []
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneDirections(d *entities.Directions) *entities.Directions {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Legs = cloneSlice(d.Legs)
	if d.Bounds != nil {
		b := *d.Bounds
		cp.Bounds = &b
	}
	return &cp
}

func cloneCards(cards []entities.Card) []entities.Card {
	out := make([]entities.Card, len(cards))
	for i, c := range cards {
		if c.Weather != nil {
			w := *c.Weather
			c.Weather = &w
		}
		if c.Chart != nil {
			ch := *c.Chart
			ch.Labels = cloneSlice(c.Chart.Labels)
			ch.Values = cloneSlice(c.Chart.Values)
			c.Chart = &ch
		}
		out[i] = c
	}
	return out
}
