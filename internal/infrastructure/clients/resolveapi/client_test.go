package resolveapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/geosight/dashboard/internal/domain/entities"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Resolve(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/resolve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req resolveRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "route from Delhi to Mumbai", req.Query)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","intent":"ROUTE","results":[
			{"token":"Delhi","city_name":"Delhi","status":"resolved","lat":28.61,"lon":77.2},
			{"token":"Mumbai","city_name":"Mumbai","status":"resolved"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	res, err := c.Resolve(context.Background(), "  route from Delhi to Mumbai ")
	require.NoError(t, err)
	assert.Equal(t, entities.IntentRoute, res.Intent)
	require.Len(t, res.Results, 2)
	coords, ok := res.Results[0].Coordinates()
	assert.True(t, ok)
	assert.Equal(t, 28.61, coords.Latitude)
	_, ok = res.Results[1].Coordinates()
	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		kind    Kind
	}{
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			kind: KindBadStatus,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
			kind: KindMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, 0).Resolve(context.Background(), "paris")
			require.Error(t, err)
			assert.True(t, IsDispatchError(err, tt.kind))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestHTTPClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).Resolve(context.Background(), "paris")
	assert.True(t, IsDispatchError(err, KindNetwork))
}

func TestHTTPClient_EmptyQuery(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", 0).Resolve(context.Background(), " ")
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}
