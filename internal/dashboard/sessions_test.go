package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/geosight/dashboard/internal/dashboard"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_Lifecycle(t *testing.T) {
	m := dashboard.NewSessionManager(time.Minute, nil, dashboard.Deps{
		Geocoder: newFakeGeocoder(),
		Router:   new(MockRouter),
	})

	s := m.Create(context.Background())
	require.NotEmpty(t, s.ID)
	assert.Equal(t, s.ID, s.Scene.Snapshot().SessionID)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(m.Close(s.ID)))
}

func TestSessionManager_Expires(t *testing.T) {
	m := dashboard.NewSessionManager(50*time.Millisecond, nil, dashboard.Deps{})
	s := m.Create(context.Background())

	time.Sleep(120 * time.Millisecond)

	_, err := m.Get(s.ID)
	assert.Error(t, err)
}
