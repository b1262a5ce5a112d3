package services

import (
	"context"
	"errors"
	"testing"

	"github.com/geosight/dashboard/internal/domain/entities"
	"github.com/geosight/dashboard/internal/domain/providers"
	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAviationRepository struct {
	mock.Mock
}

func (m *MockAviationRepository) NearestAirport(ctx context.Context, at entities.Coordinates) (*entities.Airport, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Airport), args.Error(1)
}

func (m *MockAviationRepository) FindFlight(ctx context.Context, origin, dest string) (*entities.Flight, error) {
	args := m.Called(ctx, origin, dest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Flight), args.Error(1)
}

var (
	bangalore = entities.Coordinates{Latitude: 12.9716, Longitude: 77.5946}
	delhi     = entities.Coordinates{Latitude: 28.6139, Longitude: 77.2090}
	mumbai    = entities.Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	pune      = entities.Coordinates{Latitude: 18.5204, Longitude: 73.8567}

	blr = &entities.Airport{IATA: "BLR", Name: "Kempegowda International Airport", Location: entities.Coordinates{Latitude: 13.1986, Longitude: 77.7066}}
	del = &entities.Airport{IATA: "DEL", Name: "Indira Gandhi International Airport", Location: entities.Coordinates{Latitude: 28.5562, Longitude: 77.1000}}
)

func TestTripPlannerService_DriveFlyDrive(t *testing.T) {
	aviation := new(MockAviationRepository)
	aviation.On("NearestAirport", mock.Anything, bangalore).Return(blr, nil).Once()
	aviation.On("NearestAirport", mock.Anything, delhi).Return(del, nil).Once()
	aviation.On("FindFlight", mock.Anything, "BLR", "DEL").Return(&entities.Flight{Origin: "BLR", Destination: "DEL", Airline: "6E"}, nil).Once()

	trip, err := NewTripPlannerService(aviation).Plan(context.Background(), bangalore, delhi)
	require.NoError(t, err)
	require.NotNil(t, trip)
	aviation.AssertExpectations(t)

	assert.Equal(t, "multimodal", trip.Type)
	assert.InDelta(t, 1740, trip.TotalDistanceKm, 10)
	require.Len(t, trip.Segments, 3)

	drive1, flight, drive2 := trip.Segments[0], trip.Segments[1], trip.Segments[2]
	assert.Equal(t, entities.TripSegmentDriving, drive1.Type)
	assert.Equal(t, bangalore, drive1.From)
	assert.Equal(t, blr.Location, drive1.To)
	assert.Equal(t, "Drive to Kempegowda International Airport (BLR)", drive1.Label)

	assert.Equal(t, entities.TripSegmentFlight, flight.Type)
	assert.Equal(t, "BLR", flight.FromIATA)
	assert.Equal(t, "DEL", flight.ToIATA)
	assert.Equal(t, "6E", flight.Airline)
	assert.Equal(t, "Flight to Indira Gandhi International Airport (DEL)", flight.Label)

	assert.Equal(t, entities.TripSegmentDriving, drive2.Type)
	assert.Equal(t, del.Location, drive2.From)
	assert.Equal(t, delhi, drive2.To)
	assert.Equal(t, "Drive to Destination", drive2.Label)
}

func TestTripPlannerService_ShortTripIsDriven(t *testing.T) {
	aviation := new(MockAviationRepository)

	trip, err := NewTripPlannerService(aviation).Plan(context.Background(), mumbai, pune)
	require.NoError(t, err)
	assert.Nil(t, trip)
	aviation.AssertNotCalled(t, "NearestAirport", mock.Anything, mock.Anything)
}

func TestTripPlannerService_NoTrip(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(m *MockAviationRepository)
		wantErr bool
	}{
		{
			name: "both ends share an airport",
			setup: func(m *MockAviationRepository) {
				m.On("NearestAirport", mock.Anything, mock.Anything).Return(del, nil)
			},
		},
		{
			name: "no direct flight",
			setup: func(m *MockAviationRepository) {
				m.On("NearestAirport", mock.Anything, bangalore).Return(blr, nil)
				m.On("NearestAirport", mock.Anything, delhi).Return(del, nil)
				m.On("FindFlight", mock.Anything, "BLR", "DEL").Return(nil, apperrors.NewNotFoundError("no flight"))
			},
		},
		{
			name: "no airports loaded",
			setup: func(m *MockAviationRepository) {
				m.On("NearestAirport", mock.Anything, mock.Anything).Return(nil, apperrors.NewNotFoundError("no airports loaded"))
			},
		},
		{
			name: "database failure",
			setup: func(m *MockAviationRepository) {
				m.On("NearestAirport", mock.Anything, mock.Anything).Return(nil, apperrors.NewInternalError("query failed", errors.New("conn reset")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aviation := new(MockAviationRepository)
			tt.setup(aviation)

			trip, err := NewTripPlannerService(aviation).Plan(context.Background(), bangalore, delhi)
			assert.Nil(t, trip)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.name == "both ends share an airport" {
				aviation.AssertNotCalled(t, "FindFlight", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

type tripFunc func(ctx context.Context, from, to entities.Coordinates) (*entities.MultimodalRoute, error)

func (f tripFunc) Plan(ctx context.Context, from, to entities.Coordinates) (*entities.MultimodalRoute, error) {
	return f(ctx, from, to)
}

func TestResolveService_AttachesMultimodalRoute(t *testing.T) {
	gaz := new(MockGazetteerRepository)
	gaz.On("Lookup", mock.Anything, "Bangalore").Return(match("Bengaluru", 1, bangalore.Latitude, bangalore.Longitude), nil)
	gaz.On("Lookup", mock.Anything, "Nagpur").Return(match("Nagpur", 1, 21.1458, 79.0882), nil)
	gaz.On("Lookup", mock.Anything, "Delhi").Return(match("Delhi", 1, delhi.Latitude, delhi.Longitude), nil)

	var planned [][2]entities.Coordinates
	trips := tripFunc(func(_ context.Context, from, to entities.Coordinates) (*entities.MultimodalRoute, error) {
		planned = append(planned, [2]entities.Coordinates{from, to})
		return entities.NewDriveFlyDrive(from, to, *blr, *del, entities.Flight{Airline: "AI"}, 1740), nil
	})

	route := NewResolveService(ResolveDeps{
		Analyzer:  staticAnalysis(&providers.QueryAnalysis{Intent: entities.IntentRoute, Locations: []string{"Bangalore", "Nagpur", "Delhi"}}),
		Gazetteer: gaz,
		Trips:     trips,
	})
	res, err := route.Resolve(context.Background(), "route from bangalore to delhi via nagpur")
	require.NoError(t, err)
	require.NotNil(t, res.MultimodalRoute)
	assert.Len(t, res.MultimodalRoute.Segments, 3)
	// the trip joins the first and last stops, not the via
	require.Len(t, planned, 1)
	assert.Equal(t, [2]entities.Coordinates{bangalore, delhi}, planned[0])

	info := NewResolveService(ResolveDeps{
		Analyzer:  staticAnalysis(&providers.QueryAnalysis{Intent: entities.IntentInfo, Locations: []string{"Bangalore", "Delhi"}}),
		Gazetteer: gaz,
		Trips:     trips,
	})
	res, err = info.Resolve(context.Background(), "bangalore and delhi")
	require.NoError(t, err)
	assert.Nil(t, res.MultimodalRoute)
	assert.Len(t, planned, 1)
}

func TestResolveService_TripPlannerFailureKeepsResults(t *testing.T) {
	gaz := new(MockGazetteerRepository)
	gaz.On("Lookup", mock.Anything, "Bangalore").Return(match("Bengaluru", 1, bangalore.Latitude, bangalore.Longitude), nil)
	gaz.On("Lookup", mock.Anything, "Delhi").Return(match("Delhi", 1, delhi.Latitude, delhi.Longitude), nil)

	svc := NewResolveService(ResolveDeps{
		Analyzer:  staticAnalysis(&providers.QueryAnalysis{Intent: entities.IntentRoute, Locations: []string{"Bangalore", "Delhi"}}),
		Gazetteer: gaz,
		Trips: tripFunc(func(context.Context, entities.Coordinates, entities.Coordinates) (*entities.MultimodalRoute, error) {
			return nil, errors.New("database down")
		}),
	})

	res, err := svc.Resolve(context.Background(), "bangalore to delhi")
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Len(t, res.Results, 2)
	assert.Nil(t, res.MultimodalRoute)
}
