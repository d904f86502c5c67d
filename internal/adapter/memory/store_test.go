package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

func ptr[T any](v T) *T { return &v }

func TestStore_DoRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutUser(&models.User{ID: "D1", Role: types.DriverRole, AvailabilityState: types.DriverAvailable})

	errBoom := errors.New("boom")
	err := s.Do(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Users().MarkBusy(ctx, "D1", "T1"))

		// the transaction sees its own write
		u, err := s.Users().Get(ctx, "D1")
		require.NoError(t, err)
		assert.Equal(t, types.DriverBusy, u.AvailabilityState)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	u := s.User("D1")
	assert.Equal(t, types.DriverAvailable, u.AvailabilityState)
	assert.Nil(t, u.ActiveTripID)
	assert.Nil(t, u.BusySince)
}

func TestStore_DoCommitsWithServerTime(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithNow(func() time.Time { return fixed }))
	s.PutTrip(&models.Trip{ID: "T1", Status: types.TripRequested, PassengerID: "P1"})

	var assignedAt time.Time
	err := s.Do(ctx, func(ctx context.Context) error {
		var err error
		assignedAt, err = s.Trips().MarkAssigned(ctx, "T1", "D1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, fixed, assignedAt)

	trip := s.Trip("T1")
	assert.Equal(t, types.TripAssigned, trip.Status)
	assert.Equal(t, "D1", *trip.DriverID)

	_, err = s.Trips().MarkAssigned(ctx, "T1", "D2")
	assert.ErrorIs(t, err, types.ErrTripAlreadyAssigned)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutUser(&models.User{ID: "D1", Role: types.DriverRole})

	u, err := s.Users().Get(ctx, "D1")
	require.NoError(t, err)
	u.ActiveTripID = ptr("T9")

	assert.False(t, s.User("D1").HasActiveTrip())
}

func TestStore_Fault(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SetFault(func(op string) error {
		if op == "UserRepo.ListDrivers" {
			return types.ErrStoreUnavailable
		}
		return nil
	})

	_, err := s.Users().ListDrivers(ctx)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)

	_, err = s.Vehicles().VehicleMap(ctx)
	assert.NoError(t, err)

	s.SetFault(nil)
	_, err = s.Users().ListDrivers(ctx)
	assert.NoError(t, err)
}

func TestStore_ConditionalDriverWrites(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithNow(func() time.Time { return now }))

	s.PutUser(&models.User{
		ID: "busy-old", Role: types.DriverRole, AvailabilityState: types.DriverBusy,
		ActiveTripID: ptr("T1"), BusySince: ptr(now.Add(-2 * time.Hour)),
	})
	s.PutUser(&models.User{
		ID: "busy-new", Role: types.DriverRole, AvailabilityState: types.DriverBusy,
		ActiveTripID: ptr("T2"), BusySince: ptr(now.Add(-time.Minute)),
	})
	s.PutUser(&models.User{
		ID: "idle", Role: types.DriverRole, IsAvailable: true,
		LastActivityAt: ptr(now.Add(-5 * time.Hour)),
	})

	cutoff := now.Add(-time.Hour)

	ok, err := s.Users().ReleaseStuck(ctx, "busy-old", cutoff)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Users().ReleaseStuck(ctx, "busy-new", cutoff)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Users().MarkIdleOffline(ctx, "idle", cutoff)
	require.NoError(t, err)
	assert.True(t, ok)

	// already offline, nothing to do
	ok, err = s.Users().MarkIdleOffline(ctx, "idle", cutoff)
	require.NoError(t, err)
	assert.False(t, ok)

	released := s.User("busy-old")
	assert.Equal(t, types.DriverOffline, released.AvailabilityState)
	assert.Nil(t, released.ActiveTripID)
	assert.Nil(t, released.BusySince)
}

func TestTripRepo_ListRequestedPaginates(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"T3", "T1", "T2"} {
		s.PutTrip(&models.Trip{ID: id, Status: types.TripRequested, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	s.PutTrip(&models.Trip{ID: "T4", Status: types.TripAssigned, DriverID: ptr("D1")})
	s.PutTrip(&models.Trip{ID: "T5", Status: types.TripRequested, DeletedAt: ptr(base)})

	filters := models.Filters{Page: 1, PageSize: 2, Sort: models.SortOldestFirst}
	trips, meta, err := s.Trips().ListRequested(ctx, filters)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "T3", trips[0].ID)
	assert.Equal(t, "T1", trips[1].ID)
	assert.Equal(t, 3, meta.TotalRecords)
	assert.Equal(t, 2, meta.LastPage)

	filters.Page = 2
	trips, _, err = s.Trips().ListRequested(ctx, filters)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "T2", trips[0].ID)
}
