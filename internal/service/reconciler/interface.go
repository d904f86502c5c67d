package reconciler

import (
	"context"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type DriverStore interface {
	ListBusyDrivers(ctx context.Context) ([]*models.User, error)
	ListIdleCandidates(ctx context.Context) ([]*models.User, error)
	// ReleaseStuck and MarkIdleOffline are conditional writes; false means the row changed since it was read.
	ReleaseStuck(ctx context.Context, driverID string, cutoff time.Time) (bool, error)
	MarkIdleOffline(ctx context.Context, driverID string, cutoff time.Time) (bool, error)
}

// Clock returns the record store's current time.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Publisher interface {
	PublishDriverStatus(ctx context.Context, msg models.DriverStatusMessage) error
}
