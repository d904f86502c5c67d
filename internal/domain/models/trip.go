package models

import (
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

type Trip struct {
	ID          string
	Status      types.TripStatus
	PassengerID string
	DriverID    *string
	VehicleID   *string

	Origin      Location
	Destination Location

	DistanceKm *float64
	Fare       *float64

	CreatedAt  time.Time
	AssignedAt *time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	DeletedAt  *time.Time
}

// HasDriver reports whether a driver is bound to the trip.
func (t *Trip) HasDriver() bool {
	return t.DriverID != nil && *t.DriverID != ""
}

// Clone returns a deep copy.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	c.DriverID = cloneStr(t.DriverID)
	c.VehicleID = cloneStr(t.VehicleID)
	c.DistanceKm = cloneFloat(t.DistanceKm)
	c.Fare = cloneFloat(t.Fare)
	c.AssignedAt = cloneTime(t.AssignedAt)
	c.StartedAt = cloneTime(t.StartedAt)
	c.FinishedAt = cloneTime(t.FinishedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)
	return &c
}

type CreateTripRequest struct {
	PassengerID string
	Origin      Location
	Destination Location
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
