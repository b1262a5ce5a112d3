package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	redisclient "github.com/geosight/dashboard/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisBus(t *testing.T) providers.EventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bus := NewRedisEventBus(redisclient.NewFromRedis(rdb))
	t.Cleanup(func() {
		bus.Close()
		rdb.Close()
	})
	return bus
}

func receive(t *testing.T, ch <-chan *entities.DashboardEvent) *entities.DashboardEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func testBus(t *testing.T, bus providers.EventBus) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetDashboardChannel("s1")
	events, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	scene := &entities.Scene{SessionID: "s1", Version: 3, State: entities.DashboardStateIdle}
	require.NoError(t, bus.Publish(ctx, channel, entities.NewDashboardEvent("s1", entities.DashboardEventTypeSceneUpdated, scene)))

	ev := receive(t, events)
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, entities.DashboardEventTypeSceneUpdated, ev.EventType)
	require.NotNil(t, ev.Scene)
	assert.Equal(t, uint64(3), ev.Scene.Version)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisEventBus_PublishSubscribe(t *testing.T) {
	testBus(t, newRedisBus(t))
}

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()
	testBus(t, bus)
}

func TestMemoryEventBus_OtherChannelsIsolated(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx := context.Background()
	events, err := bus.Subscribe(ctx, providers.GetDashboardChannel("a"))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, providers.GetDashboardChannel("b"), entities.NewDashboardEvent("b", entities.DashboardEventTypeNotice, nil)))

	select {
	case <-events:
		t.Fatal("received event for another session")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, bus.Unsubscribe(ctx, providers.GetDashboardChannel("a")))
	_, ok := <-events
	assert.False(t, ok)
}
