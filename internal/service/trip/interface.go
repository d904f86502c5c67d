package trip

import (
	"context"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type TripRepo interface {
	Create(ctx context.Context, t *models.Trip) (*models.Trip, error)
	ListRequested(ctx context.Context, filters models.Filters) ([]*models.Trip, models.Metadata, error)
}

type UserGetter interface {
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
}
