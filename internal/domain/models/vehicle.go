package models

type Vehicle struct {
	ID         string `json:"id"`
	UnitNumber string `json:"unit_number"`
	Plate      string `json:"plate,omitempty"`
	Brand      string `json:"brand,omitempty"`
	Model      string `json:"model,omitempty"`
	Status     string `json:"status,omitempty"`
}

// VehicleMap indexes vehicles by id for label resolution.
type VehicleMap map[string]Vehicle
