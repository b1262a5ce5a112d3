package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geosight/dashboard/internal/api/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	tests := []struct {
		name       string
		checks     map[string]handlers.HealthCheck
		wantStatus int
		wantFailed []string
	}{
		{name: "no checks", checks: nil, wantStatus: http.StatusOK},
		{name: "all up", checks: map[string]handlers.HealthCheck{"postgres": ok, "redis": ok}, wantStatus: http.StatusOK},
		{
			name:       "one down",
			checks:     map[string]handlers.HealthCheck{"postgres": down, "redis": ok},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"postgres"},
		},
		{
			name:       "timeout counts as failure",
			checks:     map[string]handlers.HealthCheck{"typesense": slow, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"redis", "typesense"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks, 50*time.Millisecond)
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
				Failed []string          `json:"failed"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Checks, len(tt.checks))
			assert.Equal(t, tt.wantFailed, body.Failed)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ready", body.Status)
			} else {
				assert.Equal(t, "unavailable", body.Status)
			}
			for _, name := range tt.wantFailed {
				assert.NotEqual(t, "ok", body.Checks[name], name)
			}
		})
	}
}
