package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LoggingMiddleware writes one access log line per request. Server errors log
// at error level and client errors at warn.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := newStatusWriter(w)
		next.ServeHTTP(sw, r)

		event := log.Info()
		switch {
		case sw.statusCode >= http.StatusInternalServerError:
			event = log.Error()
		case sw.statusCode >= http.StatusBadRequest:
			event = log.Warn()
		case isStream(r):
			// streams log when they close, which is noise at info
			event = log.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routeLabel(r.URL.Path)).
			Int("status", sw.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", remoteHost(r)).
			Msg("HTTP request")
	})
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
