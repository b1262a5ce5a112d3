package geo

import (
	"testing"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	delhi  = entities.Coordinates{Latitude: 28.6139, Longitude: 77.2090}
	mumbai = entities.Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	london = entities.Coordinates{Latitude: 51.5074, Longitude: -0.1278}
	paris  = entities.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
)

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 1148.1, HaversineKm(delhi, mumbai), 0.5)
	assert.InDelta(t, 343.6, HaversineKm(london, paris), 0.5)
	assert.Equal(t, 0.0, HaversineKm(paris, paris))
	assert.InDelta(t, HaversineKm(paris, london), HaversineKm(london, paris), 1e-9)
}

func TestPathKm(t *testing.T) {
	total := PathKm([]entities.Coordinates{london, paris, london})
	assert.InDelta(t, 2*HaversineKm(london, paris), total, 1e-9)
	assert.Equal(t, 0.0, PathKm([]entities.Coordinates{london}))
}

func TestGreatCircle(t *testing.T) {
	path := GreatCircle(delhi, mumbai, 10)
	require.Len(t, path, 11)

	assert.InDelta(t, delhi.Latitude, path[0].Latitude, 1e-6)
	assert.InDelta(t, delhi.Longitude, path[0].Longitude, 1e-6)
	assert.InDelta(t, mumbai.Latitude, path[10].Latitude, 1e-6)
	assert.InDelta(t, mumbai.Longitude, path[10].Longitude, 1e-6)

	// the sampled path has the same length as the geodesic
	assert.InDelta(t, HaversineKm(delhi, mumbai), PathKm(path), 0.5)
}

func TestGreatCircle_SamePoint(t *testing.T) {
	path := GreatCircle(paris, paris, 3)
	require.Len(t, path, 4)
	for _, p := range path {
		assert.Equal(t, paris, p)
	}
}
