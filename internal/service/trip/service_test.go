package trip

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

var (
	almaty  = models.Location{Latitude: 43.238949, Longitude: 76.889709}
	airport = models.Location{Latitude: 43.352070, Longitude: 77.040550}
)

func ptr[T any](v T) *T { return &v }

func newService(s *memory.Store) *Service {
	return New(s.Trips(), s.Users(), s, Tariff{BaseFare: 30, PerKm: 10}, logger.Discard())
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 17.5, haversine(almaty, airport), 0.3)
	assert.Zero(t, haversine(almaty, almaty))
}

func TestCreate(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithNow(func() time.Time { return now }))
	s.PutUser(&models.User{ID: "P1", Role: types.PassengerRole})

	trip, err := newService(s).Create(context.Background(), models.CreateTripRequest{
		PassengerID: "P1", Origin: almaty, Destination: airport,
	})
	require.NoError(t, err)

	stored := s.Trip(trip.ID)
	require.NotNil(t, stored)
	assert.Equal(t, types.TripRequested, stored.Status)
	assert.False(t, stored.HasDriver())
	assert.Equal(t, now, stored.CreatedAt)
	require.NotNil(t, stored.DistanceKm)
	require.NotNil(t, stored.Fare)
	assert.InDelta(t, 30+10*(*stored.DistanceKm), *stored.Fare, 0.01)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  models.CreateTripRequest
		want error
	}{
		{"bad latitude", models.CreateTripRequest{PassengerID: "P1", Origin: models.Location{Latitude: 91}, Destination: airport}, types.ErrInvalidInput},
		{"blank passenger", models.CreateTripRequest{Origin: almaty, Destination: airport}, types.ErrInvalidInput},
		{"unknown passenger", models.CreateTripRequest{PassengerID: "P404", Origin: almaty, Destination: airport}, types.ErrUserNotFound},
		{"driver as passenger", models.CreateTripRequest{PassengerID: "D1", Origin: almaty, Destination: airport}, types.ErrNotAPassenger},
		{"passenger already riding", models.CreateTripRequest{PassengerID: "P2", Origin: almaty, Destination: airport}, types.ErrPassengerHasActiveTrip},
	}

	s := memory.New()
	s.PutUser(&models.User{ID: "P1", Role: types.PassengerRole})
	s.PutUser(&models.User{ID: "P2", Role: types.PassengerRole, ActiveTripID: ptr("T1")})
	s.PutUser(&models.User{ID: "D1", Role: types.DriverRole})
	svc := newService(s)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestListRequested_ValidatesFilters(t *testing.T) {
	svc := newService(memory.New())

	_, _, err := svc.ListRequested(context.Background(), models.Filters{Page: 0, PageSize: 10, Sort: "created_at"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, _, err = svc.ListRequested(context.Background(), models.Filters{Page: 1, PageSize: 10, Sort: "fare"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	trips, meta, err := svc.ListRequested(context.Background(), models.Filters{Page: 1, PageSize: 10, Sort: "created_at"})
	require.NoError(t, err)
	assert.Empty(t, trips)
	assert.Zero(t, meta.TotalRecords)
}
