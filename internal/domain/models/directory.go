package models

import "github.com/Temutjin2k/taxi-dispatch/internal/domain/types"

// DirectoryEntry is a free driver together with its resolved display label.
type DirectoryEntry struct {
	DriverID          string            `json:"driver_id"`
	Name              string            `json:"name"`
	Label             string            `json:"label"`
	VehicleID         *string           `json:"vehicle_id,omitempty"`
	AvailabilityState types.DriverState `json:"availability_state,omitempty"`
	LastLocation      *LastLocation     `json:"last_location,omitempty"`
	HasUnit           bool              `json:"-"`
}

// DriverDirectory is a point in time snapshot of free drivers.
// WithoutUnit holds free drivers whose label could not be resolved; they are never offered.
type DriverDirectory struct {
	Assignable  []DirectoryEntry
	WithoutUnit []DirectoryEntry
}
