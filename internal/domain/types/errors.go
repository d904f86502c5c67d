package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("requested item not found")
	ErrTripNotFound    = fmt.Errorf("trip %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrVehicleNotFound = fmt.Errorf("vehicle %w", ErrNotFound)

	// assignment rule failures
	ErrTripNotAssignable   = errors.New("trip is not in requested status")
	ErrTripAlreadyAssigned = errors.New("trip already has a driver")
	ErrNotADriver          = errors.New("user is not a driver")
	ErrDriverNotAvailable  = errors.New("driver is not available")
	ErrDriverAlreadyBusy   = errors.New("driver already has an active trip")
	ErrPassengerNotFound   = errors.New("passenger not found")

	ErrAssignmentConflict = errors.New("assignment conflicted with a concurrent update, refresh and retry")
	ErrStoreUnavailable   = errors.New("record store unavailable")
	ErrInvalidInput       = errors.New("invalid input")

	ErrPassengerHasActiveTrip = errors.New("passenger already has an active trip")
	ErrNotAPassenger          = errors.New("user is not a passenger")
)

// Reason returns a stable machine readable code for rule failures, empty for anything else.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTripNotAssignable):
		return "trip_not_assignable"
	case errors.Is(err, ErrTripAlreadyAssigned):
		return "trip_already_assigned"
	case errors.Is(err, ErrNotADriver):
		return "not_a_driver"
	case errors.Is(err, ErrDriverNotAvailable):
		return "driver_not_available"
	case errors.Is(err, ErrDriverAlreadyBusy):
		return "driver_already_busy"
	case errors.Is(err, ErrPassengerNotFound):
		return "passenger_not_found"
	case errors.Is(err, ErrAssignmentConflict):
		return "assignment_conflict"
	case errors.Is(err, ErrPassengerHasActiveTrip):
		return "passenger_has_active_trip"
	case errors.Is(err, ErrNotAPassenger):
		return "not_a_passenger"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	}
	return ""
}
