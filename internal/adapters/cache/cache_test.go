package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/geosight/dashboard/internal/domain/providers"
	redisclient "github.com/geosight/dashboard/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (providers.CacheProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisAdapter(redisclient.NewFromRedis(rdb)), mr
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "geo:k", []byte("v"), 60))

	got, err := c.Get(ctx, "geo:k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := c.Exists(ctx, "geo:k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(61 * time.Second)

	_, err = c.Get(ctx, "geo:k")
	assert.True(t, errors.Is(err, providers.ErrCacheMiss))
}

func TestRedisAdapter_Delete(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "k"))

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryAdapter(t *testing.T) {
	c := NewMemoryAdapter(time.Minute, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.True(t, errors.Is(err, providers.ErrCacheMiss))

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 10))
	value[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ := c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryAdapter(time.Minute, time.Minute)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	var out payload
	assert.False(t, GetJSON(ctx, c, "p", &out))

	SetJSON(ctx, c, "p", payload{Name: "Paris"}, time.Minute)
	assert.True(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, "Paris", out.Name)

	assert.False(t, GetJSON(ctx, nil, "p", &out))
}

func TestKey_Normalises(t *testing.T) {
	assert.Equal(t, Key("geo:", " Paris "), Key("geo:", "paris"))
	assert.NotEqual(t, Key("geo:", "paris"), Key("geo:", "london"))
	assert.Contains(t, Key("geo:v1:", "x"), "geo:v1:")
}
