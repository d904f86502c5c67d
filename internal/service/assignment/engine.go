package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/metrics"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
)

/*
Engine binds one requested trip to one free driver.

Every precondition is read and checked inside the same transaction that
writes trip, driver and passenger, so concurrent calls on the same trip or
driver serialize and at most one of them commits.
*/
type Engine struct {
	trips     TripRepo
	users     UserRepo
	trm       trm.TxManager
	publisher Publisher
	l         logger.Logger
}

// New returns an engine. publisher may be nil.
func New(trips TripRepo, users UserRepo, trm trm.TxManager, publisher Publisher, l logger.Logger) *Engine {
	return &Engine{
		trips:     trips,
		users:     users,
		trm:       trm,
		publisher: publisher,
		l:         l,
	}
}

// Assign binds driverID to tripID. Rule failures return the matching sentinel
// from the types package and leave every record untouched.
func (e *Engine) Assign(ctx context.Context, tripID, driverID string) (*models.Assignment, error) {
	const op = "Engine.Assign"

	tripID, driverID = strings.TrimSpace(tripID), strings.TrimSpace(driverID)
	ctx = wrap.WithAction(ctx, types.ActionAssignDriver)
	ctx = wrap.WithTripID(ctx, tripID)
	ctx = wrap.WithDriverID(ctx, driverID)

	if tripID == "" || driverID == "" {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: trip id and driver id are required: %w", op, types.ErrInvalidInput))
	}

	start := time.Now()
	var result *models.Assignment

	err := e.trm.Do(ctx, func(ctx context.Context) error {
		a, err := e.assign(ctx, tripID, driverID)
		if err != nil {
			return err
		}
		result = a
		return nil
	})

	metrics.RecordAssignment(outcome(err), time.Since(start))

	if err != nil {
		if errors.Is(err, trm.ErrRetriesExhausted) {
			err = fmt.Errorf("%s: %w: %w", op, types.ErrAssignmentConflict, err)
		}
		return nil, wrap.Error(ctx, err)
	}

	e.l.Info(ctx, "driver assigned to trip", "passenger_id", result.PassengerID, "assigned_at", result.AssignedAt)
	e.publish(ctx, result)

	return result, nil
}

// assign runs one attempt inside the transaction carried by ctx.
func (e *Engine) assign(ctx context.Context, tripID, driverID string) (*models.Assignment, error) {
	// lock order: trip, driver, passenger
	trip, err := e.trips.GetForUpdate(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}

	driver, err := e.users.GetForUpdate(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver: %w", err)
	}

	if err := checkTrip(trip); err != nil {
		return nil, err
	}
	if err := checkDriver(driver); err != nil {
		return nil, err
	}

	passengerID := strings.TrimSpace(trip.PassengerID)
	if passengerID != "" {
		if _, err := e.users.GetForUpdate(ctx, passengerID); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return nil, types.ErrPassengerNotFound
			}
			return nil, fmt.Errorf("load passenger: %w", err)
		}
	}

	assignedAt, err := e.trips.MarkAssigned(ctx, tripID, driverID)
	if err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}
	if err := e.users.MarkBusy(ctx, driverID, tripID); err != nil {
		return nil, fmt.Errorf("update driver: %w", err)
	}
	if passengerID != "" {
		if err := e.users.SetActiveTrip(ctx, passengerID, tripID); err != nil {
			return nil, fmt.Errorf("update passenger: %w", err)
		}
	}

	return &models.Assignment{
		TripID:      tripID,
		DriverID:    driverID,
		PassengerID: passengerID,
		AssignedAt:  assignedAt,
	}, nil
}

// checkTrip rejects trips that already carry a driver before looking at status,
// so a lost race reads as TripAlreadyAssigned.
func checkTrip(trip *models.Trip) error {
	if trip.HasDriver() {
		return types.ErrTripAlreadyAssigned
	}
	if trip.Status != types.TripRequested {
		return types.ErrTripNotAssignable
	}
	return nil
}

// checkDriver treats an active trip as the authoritative busy signal and the
// availability state, when tracked, as a secondary check.
func checkDriver(driver *models.User) error {
	if !driver.IsDriver() {
		return types.ErrNotADriver
	}
	if driver.HasActiveTrip() {
		return types.ErrDriverAlreadyBusy
	}
	if driver.AvailabilityState != "" && driver.AvailabilityState != types.DriverAvailable {
		return types.ErrDriverNotAvailable
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, a *models.Assignment) {
	if e.publisher == nil {
		return
	}

	msg := models.TripAssignedMessage{
		TripID:        a.TripID,
		DriverID:      a.DriverID,
		PassengerID:   a.PassengerID,
		AssignedAt:    a.AssignedAt,
		CorrelationID: wrap.FromContext(ctx).RequestID,
	}
	if err := e.publisher.PublishTripAssigned(ctx, msg); err != nil {
		e.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish trip assigned event", err)
		return
	}
	e.l.Debug(wrap.WithAction(ctx, types.ActionEventPublished), "trip assigned event published")
}

func outcome(err error) string {
	if err == nil {
		return "assigned"
	}
	if reason := types.Reason(err); reason != "" {
		return reason
	}
	if errors.Is(err, trm.ErrRetriesExhausted) {
		return "assignment_conflict"
	}
	if errors.Is(err, types.ErrInvalidInput) {
		return "invalid_input"
	}
	return "error"
}
