package models

import "time"

// Assignment is the committed result of binding a driver to a trip.
type Assignment struct {
	TripID      string    `json:"trip_id"`
	DriverID    string    `json:"driver_id"`
	PassengerID string    `json:"passenger_id,omitempty"`
	AssignedAt  time.Time `json:"assigned_at"`
}
