package trip

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
	"github.com/Temutjin2k/taxi-dispatch/pkg/validator"
)

type Service struct {
	trips  TripRepo
	users  UserGetter
	trm    trm.TxManager
	tariff Tariff
	l      logger.Logger
}

func New(trips TripRepo, users UserGetter, trm trm.TxManager, tariff Tariff, l logger.Logger) *Service {
	return &Service{
		trips:  trips,
		users:  users,
		trm:    trm,
		tariff: tariff,
		l:      l,
	}
}

// Create stores a requested trip for a passenger without an active trip.
func (s *Service) Create(ctx context.Context, req models.CreateTripRequest) (*models.Trip, error) {
	const op = "TripService.Create"
	ctx = wrap.WithAction(ctx, types.ActionCreateTrip)

	v := validator.New()
	v.Check(validator.NotBlank(req.PassengerID), "passenger_id", "must be provided")
	v.Check(req.Origin.Valid(), "origin", "must be a valid coordinate")
	v.Check(req.Destination.Valid(), "destination", "must be a valid coordinate")
	if !v.Valid() {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %v: %w", op, v.Errors, types.ErrInvalidInput))
	}

	distance := round(haversine(req.Origin, req.Destination), 2)
	fare := s.tariff.fare(distance)

	trip := &models.Trip{
		ID:          uuid.NewString(),
		Status:      types.TripRequested,
		PassengerID: req.PassengerID,
		Origin:      req.Origin,
		Destination: req.Destination,
		DistanceKm:  &distance,
		Fare:        &fare,
	}

	var created *models.Trip
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		passenger, err := s.users.GetForUpdate(ctx, req.PassengerID)
		if err != nil {
			return fmt.Errorf("load passenger: %w", err)
		}
		if passenger.Role != types.PassengerRole {
			return types.ErrNotAPassenger
		}
		if passenger.HasActiveTrip() {
			return types.ErrPassengerHasActiveTrip
		}

		created, err = s.trips.Create(ctx, trip)
		if err != nil {
			return fmt.Errorf("create trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(wrap.WithUserID(ctx, req.PassengerID), err)
	}

	s.l.Info(wrap.WithTripID(ctx, created.ID), "trip requested", "distance_km", distance, "fare", fare)
	return created, nil
}

// ListRequested returns a page of requested trips.
func (s *Service) ListRequested(ctx context.Context, filters models.Filters) ([]*models.Trip, models.Metadata, error) {
	const op = "TripService.ListRequested"
	ctx = wrap.WithAction(ctx, types.ActionListRequested)

	v := validator.New()
	if filters.Validate(v); !v.Valid() {
		return nil, models.Metadata{}, wrap.Error(ctx, fmt.Errorf("%s: %v: %w", op, v.Errors, types.ErrInvalidInput))
	}

	trips, meta, err := s.trips.ListRequested(ctx, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	return trips, meta, nil
}
