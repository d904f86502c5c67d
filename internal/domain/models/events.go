package models

import (
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

// RabbitMQ message: trip.assigned -> <dispatch_topic>
type TripAssignedMessage struct {
	TripID        string    `json:"trip_id"`
	DriverID      string    `json:"driver_id"`
	PassengerID   string    `json:"passenger_id,omitempty"`
	AssignedAt    time.Time `json:"assigned_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// RabbitMQ message: driver.status.offline -> <dispatch_topic>
type DriverStatusMessage struct {
	DriverID      string            `json:"driver_id"`
	Status        types.DriverState `json:"status"`
	Reason        types.SweepName   `json:"reason"`
	ReleasedTrip  string            `json:"released_trip_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}
