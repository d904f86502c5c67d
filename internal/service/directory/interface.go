package directory

import (
	"context"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type DriverLister interface {
	ListDrivers(ctx context.Context) ([]*models.User, error)
}

type VehicleSource interface {
	VehicleMap(ctx context.Context) (models.VehicleMap, error)
}
