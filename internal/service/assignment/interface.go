package assignment

import (
	"context"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type TripRepo interface {
	GetForUpdate(ctx context.Context, id string) (*models.Trip, error)
	MarkAssigned(ctx context.Context, tripID, driverID string) (assignedAt time.Time, err error)
}

type UserRepo interface {
	GetForUpdate(ctx context.Context, id string) (*models.User, error)
	MarkBusy(ctx context.Context, driverID, tripID string) error
	SetActiveTrip(ctx context.Context, userID, tripID string) error
}

type Publisher interface {
	PublishTripAssigned(ctx context.Context, msg models.TripAssignedMessage) error
}
