package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/geosight/dashboard/internal/domain/providers"
)

// GetJSON decodes a cached value into dest. It reports false on a miss, a
// cache failure or undecodable data; callers then fetch from the source.
func GetJSON(ctx context.Context, c providers.CacheProvider, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// SetJSON stores value under key. Failures are ignored.
func SetJSON(ctx context.Context, c providers.CacheProvider, key string, value interface{}, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, data, int(ttl.Seconds()))
}

// Key builds a namespaced cache key from a normalised, hashed input
func Key(prefix string, parts ...string) string {
	normalized := strings.ToLower(strings.TrimSpace(strings.Join(parts, "|")))
	sum := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(sum[:])
}
