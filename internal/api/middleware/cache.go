package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/geosight/dashboard/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

// CachedRoute describes how one GET route is cached
type CachedRoute struct {
	TTLSeconds int
	// FoldQuery case-folds and trims query values before keying, so
	// "Paris" and " paris " share an entry
	FoldQuery bool
}

// CacheMiddleware caches JSON responses of read-only routes. Dashboard
// sessions change on every request and are never cached.
type CacheMiddleware struct {
	cache  providers.CacheProvider
	routes map[string]CachedRoute
}

// NewCacheMiddleware caches the geocode proxy for an hour
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return CacheMiddlewareWithRoutes(cache, map[string]CachedRoute{
		"/api/geocode": {TTLSeconds: 3600, FoldQuery: true},
	})
}

// CacheMiddlewareWithRoutes caches exactly the given paths
func CacheMiddlewareWithRoutes(cache providers.CacheProvider, routes map[string]CachedRoute) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, routes: routes}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}
		route, ok := m.routes[r.URL.Path]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r, route.FoldQuery)
		if cached, err := m.cache.Get(r.Context(), key); err == nil && len(cached) > 0 {
			log.Debug().Str("path", r.URL.Path).Msg("Response cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.statusCode == http.StatusOK && rec.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), key, rec.body.Bytes(), route.TTLSeconds); err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
			}
		}
	})
}

// cacheKey hashes the path with its query parameters in sorted order
func cacheKey(r *http.Request, fold bool) string {
	values := r.URL.Query()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(r.URL.Path)
	for _, name := range names {
		for _, v := range values[name] {
			if fold {
				v = strings.ToLower(strings.Join(strings.Fields(v), " "))
			}
			b.WriteString("&" + url.QueryEscape(name) + "=" + url.QueryEscape(v))
		}
	}

	hash := sha256.Sum256([]byte(b.String()))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// responseRecorder tees the response to the client and a buffer
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
