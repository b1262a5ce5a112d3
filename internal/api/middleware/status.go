package middleware

import "net/http"

// statusWriter records the status code written through it. It keeps Flush
// working so event streams pass through unbuffered.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *statusWriter) Flush() {
	if flusher, ok := sw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// idSegments maps a collection segment to the placeholder for the segment
// that follows it
var idSegments = map[string]string{
	"sessions":  "{id}",
	"dashboard": "{id}",
	"features":  "{placeId}",
}

// routeLabel turns a request path into its route template so span names and
// metric labels do not carry session or place ids. The middleware wraps the
// mux, so r.Pattern is not available yet.
func routeLabel(path string) string {
	parts := splitPath(path)
	for i := 1; i < len(parts); i++ {
		placeholder, ok := idSegments[parts[i-1]]
		if !ok {
			continue
		}
		// /api/dashboard/sessions keeps its literal segment
		if parts[i-1] == "dashboard" && parts[i] == "sessions" {
			continue
		}
		parts[i] = placeholder
	}
	return "/" + strings.Join(parts, "/")
}
