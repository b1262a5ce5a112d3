package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/geosight/dashboard/internal/domain/providers"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryAdapter is an in-process CacheProvider used when Redis is unavailable
type MemoryAdapter struct {
	store *gocache.Cache
}

// NewMemoryAdapter creates an in-memory cache with the given default
// expiration and janitor interval
func NewMemoryAdapter(defaultExpiration, cleanupInterval time.Duration) providers.CacheProvider {
	return &MemoryAdapter{store: gocache.New(defaultExpiration, cleanupInterval)}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := a.store.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", providers.ErrCacheMiss, key)
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected cache value type %T for %s", v, key)
	}
	return b, nil
}

// Set stores a copy of value. A non-positive expiration uses the default.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	d := gocache.DefaultExpiration
	if expirationSeconds > 0 {
		d = time.Duration(expirationSeconds) * time.Second
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	a.store.Set(key, cp, d)
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.store.Delete(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.store.Get(key)
	return ok, nil
}
