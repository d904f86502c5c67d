package models

import (
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

// SweepReport summarises one reconciler pass.
type SweepReport struct {
	Sweep     types.SweepName `json:"sweep"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
	Cutoff    time.Time       `json:"cutoff"`

	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// Contended is set when another instance held the sweep lease and nothing ran.
	Contended bool `json:"contended,omitempty"`

	CorrectedDrivers []string `json:"corrected_drivers,omitempty"`
}
