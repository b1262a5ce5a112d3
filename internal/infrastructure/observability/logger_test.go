package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "production defaults to info", env: "production", wantInfo: true},
		{name: "override to debug", env: "production", level: "DEBUG", wantDebug: true, wantInfo: true},
		{name: "override to warn", env: "production", level: "warn"},
		{name: "bad level keeps default", env: "production", level: "loud", wantInfo: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, "geosight-test", tt.env, tt.level)

			logger.Debug().Msg("debug line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))

			buf.Reset()
			logger.Info().Msg("info line")
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "geosight-api", "production", "")

	logger.Info().Str("intent", "ROUTE").Msg("Resolved query")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "geosight-api", entry["service"])
	assert.Equal(t, "ROUTE", entry["intent"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestLoggerFromContext_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = newLogger(&buf, "geosight-test", "production", "")
	t.Cleanup(func() { log.Logger = prev })

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	LoggerFromContext(ctx).Info().Msg("traced")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])

	buf.Reset()
	LoggerFromContext(context.Background()).Info().Msg("untraced")
	assert.NotContains(t, buf.String(), "trace_id")
}
