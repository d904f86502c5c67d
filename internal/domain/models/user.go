package models

import (
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

// User is a passenger, driver or admin record. Driver fields are zero for other roles.
type User struct {
	ID    string
	Name  string
	Email string
	Role  types.UserRole

	// AvailabilityState is empty when the record does not track it.
	AvailabilityState types.DriverState
	// IsAvailable is the legacy boolean availability flag kept next to the state.
	IsAvailable bool

	ActiveTripID      *string
	AssignedVehicleID *string
	// AssignedUnit is the unit number an operator typed on the driver record.
	AssignedUnit *string
	// Unit is the oldest unit field some driver records still carry.
	Unit *string

	LastLocation   *LastLocation
	LastActivityAt *time.Time
	BusySince      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasActiveTrip reports whether ActiveTripID is set and non-empty.
func (u *User) HasActiveTrip() bool {
	return u.ActiveTripID != nil && *u.ActiveTripID != ""
}

func (u *User) IsDriver() bool {
	return u.Role == types.DriverRole
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.ActiveTripID = cloneStr(u.ActiveTripID)
	c.AssignedVehicleID = cloneStr(u.AssignedVehicleID)
	c.AssignedUnit = cloneStr(u.AssignedUnit)
	c.Unit = cloneStr(u.Unit)
	c.LastActivityAt = cloneTime(u.LastActivityAt)
	c.BusySince = cloneTime(u.BusySince)
	if u.LastLocation != nil {
		loc := *u.LastLocation
		c.LastLocation = &loc
	}
	return &c
}
