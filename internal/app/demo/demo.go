// Package demo builds a small fleet used by the seed tool and the in-memory store.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
)

const (
	AdminID      = "00000000-0000-4000-8000-000000000001"
	PassengerAID = "00000000-0000-4000-8000-000000000101"
	PassengerBID = "00000000-0000-4000-8000-000000000102"
	PassengerCID = "00000000-0000-4000-8000-000000000103"

	DriverUnit12ID  = "00000000-0000-4000-8000-000000000201"
	DriverUnit7ID   = "00000000-0000-4000-8000-000000000202"
	DriverLegacyID  = "00000000-0000-4000-8000-000000000203"
	DriverNoUnitID  = "00000000-0000-4000-8000-000000000204"
	DriverStuckID   = "00000000-0000-4000-8000-000000000205"
	DriverIdleID    = "00000000-0000-4000-8000-000000000206"
	DriverOfflineID = "00000000-0000-4000-8000-000000000207"

	VehicleUnit12ID = "00000000-0000-4000-8000-000000000301"
	VehicleUnit3ID  = "00000000-0000-4000-8000-000000000302"

	TripRequestedAID = "00000000-0000-4000-8000-000000000401"
	TripRequestedBID = "00000000-0000-4000-8000-000000000402"
	TripStuckID      = "00000000-0000-4000-8000-000000000403"
)

type Dataset struct {
	Vehicles []models.Vehicle
	Users    []*models.User
	Trips    []*models.Trip
}

// New returns the demo records with activity timestamps relative to now.
// The stuck driver has been busy for 90 minutes and the idle driver inactive for 5 hours.
func New(now time.Time) Dataset {
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	str := func(s string) *string { return &s }
	at := func(lat, lng float64, d time.Duration) *models.LastLocation {
		return &models.LastLocation{
			Location:   models.Location{Latitude: lat, Longitude: lng},
			RecordedAt: *ago(d),
		}
	}

	vehicles := []models.Vehicle{
		{ID: VehicleUnit12ID, UnitNumber: "12", Plate: "123ABC02", Brand: "Toyota", Model: "Camry", Status: "active"},
		{ID: VehicleUnit3ID, UnitNumber: "3", Plate: "777KZA02", Brand: "Hyundai", Model: "Sonata", Status: "active"},
	}

	users := []*models.User{
		{ID: AdminID, Name: "Dispatcher", Email: "admin@dispatch.kz", Role: types.AdminRole},
		{ID: PassengerAID, Name: "Aigerim", Email: "aigerim@dispatch.kz", Role: types.PassengerRole},
		{ID: PassengerBID, Name: "Nurlan", Email: "nurlan@dispatch.kz", Role: types.PassengerRole},
		{ID: PassengerCID, Name: "Dana", Email: "dana@dispatch.kz", Role: types.PassengerRole, ActiveTripID: str(TripStuckID)},
		{
			ID: DriverUnit12ID, Name: "Yerlan", Email: "yerlan@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverAvailable, IsAvailable: true,
			AssignedVehicleID: str(VehicleUnit12ID),
			LastLocation:      at(43.2389, 76.8897, time.Minute),
			LastActivityAt:    ago(time.Minute),
		},
		{
			ID: DriverUnit7ID, Name: "Marat", Email: "marat@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverAvailable, IsAvailable: true,
			AssignedUnit:   str("7"),
			LastLocation:   at(43.2567, 76.9286, 3*time.Minute),
			LastActivityAt: ago(3 * time.Minute),
		},
		{
			ID: DriverLegacyID, Name: "Serik", Email: "serik@dispatch.kz", Role: types.DriverRole,
			IsAvailable:    true,
			Unit:           str("B-21"),
			LastActivityAt: ago(20 * time.Minute),
		},
		{
			ID: DriverNoUnitID, Name: "Askar", Email: "askar@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverAvailable, IsAvailable: true,
			AssignedUnit:   str("   "),
			LastActivityAt: ago(10 * time.Minute),
		},
		{
			ID: DriverStuckID, Name: "Timur", Email: "timur@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverBusy,
			AssignedVehicleID: str(VehicleUnit3ID),
			ActiveTripID:      str(TripStuckID),
			BusySince:         ago(90 * time.Minute),
			LastActivityAt:    ago(90 * time.Minute),
		},
		{
			ID: DriverIdleID, Name: "Bolat", Email: "bolat@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverAvailable, IsAvailable: true,
			AssignedUnit:   str("15"),
			LastActivityAt: ago(5 * time.Hour),
		},
		{
			ID: DriverOfflineID, Name: "Daniyar", Email: "daniyar@dispatch.kz", Role: types.DriverRole,
			AvailabilityState: types.DriverOffline,
			AssignedUnit:      str("4"),
			LastActivityAt:    ago(48 * time.Hour),
		},
	}

	trips := []*models.Trip{
		newTrip(TripRequestedAID, PassengerAID, models.Location{Latitude: 43.2380, Longitude: 76.9450}, models.Location{Latitude: 43.3521, Longitude: 77.0405}, now.Add(-4*time.Minute)),
		newTrip(TripRequestedBID, PassengerBID, models.Location{Latitude: 43.2220, Longitude: 76.8512}, models.Location{Latitude: 43.2567, Longitude: 76.9286}, now.Add(-2*time.Minute)),
	}

	stuck := newTrip(TripStuckID, PassengerCID, models.Location{Latitude: 43.2100, Longitude: 76.9000}, models.Location{Latitude: 43.2700, Longitude: 76.9500}, now.Add(-95*time.Minute))
	stuck.Status = types.TripOnboard
	stuck.DriverID = str(DriverStuckID)
	stuck.AssignedAt = ago(90 * time.Minute)
	trips = append(trips, stuck)

	return Dataset{Vehicles: vehicles, Users: users, Trips: trips}
}

func newTrip(id, passengerID string, origin, destination models.Location, createdAt time.Time) *models.Trip {
	return &models.Trip{
		ID:          id,
		Status:      types.TripRequested,
		PassengerID: passengerID,
		Origin:      origin,
		Destination: destination,
		CreatedAt:   createdAt,
	}
}

type (
	VehicleWriter interface {
		Upsert(ctx context.Context, v models.Vehicle) error
	}
	UserWriter interface {
		Upsert(ctx context.Context, u *models.User) error
	}
	TripWriter interface {
		Upsert(ctx context.Context, t *models.Trip) error
	}
)

// Load writes d in a single transaction.
func Load(ctx context.Context, tx trm.TxManager, vehicles VehicleWriter, users UserWriter, trips TripWriter, d Dataset) error {
	return tx.Do(ctx, func(ctx context.Context) error {
		for _, v := range d.Vehicles {
			if err := vehicles.Upsert(ctx, v); err != nil {
				return fmt.Errorf("vehicle %s: %w", v.ID, err)
			}
		}
		for _, u := range d.Users {
			if err := users.Upsert(ctx, u); err != nil {
				return fmt.Errorf("user %s: %w", u.ID, err)
			}
		}
		for _, t := range d.Trips {
			if err := trips.Upsert(ctx, t); err != nil {
				return fmt.Errorf("trip %s: %w", t.ID, err)
			}
		}
		return nil
	})
}
