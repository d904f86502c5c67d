package dto

import (
	"strings"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

type AssignDriverRequest struct {
	DriverID string `json:"driver_id"`
}

func (r *AssignDriverRequest) Validate(v *validator.Validator) {
	v.Check(strings.TrimSpace(r.DriverID) != "", "driver_id", "must be provided")
}

type AssignDriverResponse struct {
	TripID      string    `json:"trip_id"`
	DriverID    string    `json:"driver_id"`
	PassengerID string    `json:"passenger_id"`
	Status      string    `json:"status"`
	AssignedAt  time.Time `json:"assigned_at"`
}

func NewAssignDriverResponse(a *models.Assignment) AssignDriverResponse {
	return AssignDriverResponse{
		TripID:      a.TripID,
		DriverID:    a.DriverID,
		PassengerID: a.PassengerID,
		Status:      types.TripAssigned.String(),
		AssignedAt:  a.AssignedAt,
	}
}

type DirectoryEntry struct {
	DriverID          string     `json:"driver_id"`
	Name              string     `json:"name"`
	Label             string     `json:"label"`
	VehicleID         *string    `json:"vehicle_id,omitempty"`
	AvailabilityState string     `json:"availability_state,omitempty"`
	LastLocation      *Location  `json:"last_location,omitempty"`
	LocationAt        *time.Time `json:"last_location_at,omitempty"`
}

type DirectoryResponse struct {
	Assignable  []DirectoryEntry `json:"assignable"`
	WithoutUnit []DirectoryEntry `json:"without_unit"`
}

func NewDirectoryResponse(d models.DriverDirectory) DirectoryResponse {
	return DirectoryResponse{
		Assignable:  newEntries(d.Assignable),
		WithoutUnit: newEntries(d.WithoutUnit),
	}
}

func newEntries(entries []models.DirectoryEntry) []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		item := DirectoryEntry{
			DriverID:          e.DriverID,
			Name:              e.Name,
			Label:             e.Label,
			VehicleID:         e.VehicleID,
			AvailabilityState: e.AvailabilityState.String(),
		}
		if e.LastLocation != nil {
			item.LastLocation = &Location{Latitude: e.LastLocation.Latitude, Longitude: e.LastLocation.Longitude}
			at := e.LastLocation.RecordedAt
			item.LocationAt = &at
		}
		out = append(out, item)
	}
	return out
}
