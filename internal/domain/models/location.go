package models

import (
	"time"

	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point is a finite coordinate inside the lat/lng ranges.
func (l Location) Valid() bool {
	return validator.Latitude(l.Latitude) && validator.Longitude(l.Longitude)
}

// LastLocation is the most recent position merged into a driver record by the tracking collaborator.
type LastLocation struct {
	Location
	RecordedAt time.Time `json:"recorded_at"`
}
