package middleware

import (
	"net/http"
	"time"

	"github.com/geosight/dashboard/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

// ObservabilityMiddleware traces every request and records the request
// counter and latency histogram, labelled by route template
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r.URL.Path)

			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+route)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.user_agent", r.UserAgent()),
			)
			if id := sessionFromPath(route, r.URL.Path); id != "" {
				observability.SetSpanAttributes(span, attribute.String("dashboard.session_id", id))
			}

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, sw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", sw.statusCode))
		})
	}
}

// sessionFromPath returns the concrete segment that routeLabel replaced with
// {id}, or "" when the route has none
func sessionFromPath(route, path string) string {
	tmpl := splitPath(route)
	parts := splitPath(path)
	if len(tmpl) != len(parts) {
		return ""
	}
	for i, seg := range tmpl {
		if seg == "{id}" {
			return parts[i]
		}
	}
	return ""
}
