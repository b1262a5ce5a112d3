package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger configures the global logger for a server process. Development
// gets a console writer at debug level, everything else JSON at info level.
// LOG_LEVEL overrides the level in both cases.
func InitLogger(serviceName, env string) {
	log.Logger = newLogger(os.Stdout, serviceName, env, os.Getenv("LOG_LEVEL"))
}

// InitConsoleLogger is InitLogger for command line tools: logs go to stderr so
// stdout carries only the tool's output.
func InitConsoleLogger(serviceName, env string) {
	log.Logger = newLogger(os.Stderr, serviceName, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(out io.Writer, serviceName, env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl := zerolog.InfoLevel
	if env == "development" {
		lvl = zerolog.DebugLevel
	}
	if level = strings.TrimSpace(level); level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
			lvl = parsed
		}
	}

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(lvl).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// LoggerFromContext returns the global logger tagged with the trace and span
// of ctx, if any
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.With().Logger()

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return &logger
}
