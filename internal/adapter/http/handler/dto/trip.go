package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

type Coordinate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c *Coordinate) validate(v *validator.Validator, key string) {
	if c == nil || c.Latitude == nil || c.Longitude == nil {
		v.AddError(key, "latitude and longitude must be provided")
		return
	}
	v.Check(validator.Latitude(*c.Latitude), key+".latitude", "must be between -90 and 90")
	v.Check(validator.Longitude(*c.Longitude), key+".longitude", "must be between -180 and 180")
}

func (c *Coordinate) toModel() models.Location {
	return models.Location{Latitude: *c.Latitude, Longitude: *c.Longitude}
}

type CreateTripRequest struct {
	PassengerID string      `json:"passenger_id"`
	Origin      *Coordinate `json:"origin"`
	Destination *Coordinate `json:"destination"`
}

func (r *CreateTripRequest) Validate(v *validator.Validator) {
	v.Check(r.PassengerID != "", "passenger_id", "must be provided")
	if r.PassengerID != "" {
		_, err := uuid.Parse(r.PassengerID)
		v.Check(err == nil, "passenger_id", "must be a valid UUID")
	}
	r.Origin.validate(v, "origin")
	r.Destination.validate(v, "destination")
}

// ToModel must be called after a successful Validate.
func (r *CreateTripRequest) ToModel() models.CreateTripRequest {
	return models.CreateTripRequest{
		PassengerID: r.PassengerID,
		Origin:      r.Origin.toModel(),
		Destination: r.Destination.toModel(),
	}
}

type TripResponse struct {
	TripID      string     `json:"trip_id"`
	Status      string     `json:"status"`
	PassengerID string     `json:"passenger_id"`
	DriverID    *string    `json:"driver_id,omitempty"`
	Origin      Location   `json:"origin"`
	Destination Location   `json:"destination"`
	DistanceKm  *float64   `json:"distance_km,omitempty"`
	Fare        *float64   `json:"fare,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewTripResponse(t *models.Trip) TripResponse {
	return TripResponse{
		TripID:      t.ID,
		Status:      t.Status.String(),
		PassengerID: t.PassengerID,
		DriverID:    t.DriverID,
		Origin:      Location{Latitude: t.Origin.Latitude, Longitude: t.Origin.Longitude},
		Destination: Location{Latitude: t.Destination.Latitude, Longitude: t.Destination.Longitude},
		DistanceKm:  t.DistanceKm,
		Fare:        t.Fare,
		CreatedAt:   t.CreatedAt,
		AssignedAt:  t.AssignedAt,
	}
}

func NewTripList(trips []*models.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, NewTripResponse(t))
	}
	return out
}
