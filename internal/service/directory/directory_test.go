package directory

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

func ptr[T any](v T) *T { return &v }

func driverIDs(entries []models.DirectoryEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.DriverID)
	}
	return ids
}

func TestBuild_LabelsFilterAndOrder(t *testing.T) {
	vehicles := models.VehicleMap{
		"V1": {ID: "V1", UnitNumber: "12"},
		"V2": {ID: "V2", UnitNumber: "  "},
		"V3": {ID: "V3", UnitNumber: "3"},
	}
	drivers := []*models.User{
		{ID: "vehicle-12", Role: types.DriverRole, AssignedVehicleID: ptr("V1"), AssignedUnit: ptr("99")},
		{ID: "blank-vehicle", Role: types.DriverRole, AssignedVehicleID: ptr("V2"), AssignedUnit: ptr(" 7 ")},
		{ID: "legacy-unit", Role: types.DriverRole, Unit: ptr("A-40")},
		{ID: "no-digits", Role: types.DriverRole, AssignedUnit: ptr("north")},
		{ID: "missing-vehicle", Role: types.DriverRole, AssignedVehicleID: ptr("V404")},
		{ID: "busy", Role: types.DriverRole, AssignedVehicleID: ptr("V3"), ActiveTripID: ptr("T1")},
		{ID: "passenger", Role: types.PassengerRole, AssignedUnit: ptr("1")},
	}

	dir := Build(drivers, vehicles)

	assert.Equal(t, []string{"blank-vehicle", "vehicle-12", "legacy-unit", "no-digits"}, driverIDs(dir.Assignable))
	assert.Equal(t, "Unit 7", dir.Assignable[0].Label)
	assert.Equal(t, "Unit 12", dir.Assignable[1].Label)
	assert.Equal(t, "Unit A-40", dir.Assignable[2].Label)

	require.Len(t, dir.WithoutUnit, 1)
	assert.Equal(t, "missing-vehicle", dir.WithoutUnit[0].DriverID)
	assert.Equal(t, NoUnitLabel, dir.WithoutUnit[0].Label)
}

func TestBuild_BusyDriverNeverListed(t *testing.T) {
	drivers := []*models.User{
		{ID: "stale", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, ActiveTripID: ptr("T9"), AssignedUnit: ptr("1")},
		{ID: "busy-no-unit", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T8")},
	}

	dir := Build(drivers, nil)
	assert.Empty(t, dir.Assignable)
	assert.Empty(t, dir.WithoutUnit)
}

func TestSortKey(t *testing.T) {
	assert.Equal(t, 12, sortKey("Unit 12"))
	assert.Equal(t, 40, sortKey("Unit A-40"))
	assert.Equal(t, math.MaxInt, sortKey("Unit north"))
	assert.Equal(t, math.MaxInt, sortKey(NoUnitLabel))
}

func TestListAssignable_RefreshAfterAssignment(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.PutVehicle(models.Vehicle{ID: "V1", UnitNumber: "5"})
	store.PutUser(&models.User{ID: "D1", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, AssignedVehicleID: ptr("V1")})
	store.PutUser(&models.User{ID: "D2", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, AssignedUnit: ptr("2")})

	svc := New(store.Users(), store.Vehicles(), logger.Discard())

	dir, err := svc.ListAssignable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"D2", "D1"}, driverIDs(dir.Assignable))

	require.NoError(t, store.Users().MarkBusy(ctx, "D2", "T1"))

	dir, err = svc.ListAssignable(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1"}, driverIDs(dir.Assignable))
}

func TestListAssignable_ReadFailureIsEmpty(t *testing.T) {
	store := memory.New()
	store.PutUser(&models.User{ID: "D1", Role: types.DriverRole, AssignedUnit: ptr("1")})

	for _, op := range []string{"UserRepo.ListDrivers", "VehicleRepo.VehicleMap"} {
		t.Run(op, func(t *testing.T) {
			store.SetFault(func(got string) error {
				if got == op {
					return fmt.Errorf("%w: connection reset", types.ErrStoreUnavailable)
				}
				return nil
			})
			defer store.SetFault(nil)

			dir, err := New(store.Users(), store.Vehicles(), logger.Discard()).ListAssignable(context.Background())
			require.ErrorIs(t, err, types.ErrStoreUnavailable)
			assert.Empty(t, dir.Assignable)
			assert.Empty(t, dir.WithoutUnit)
		})
	}
}
