package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/metrics"
)

// Service builds the list of drivers an operator may assign.
type Service struct {
	drivers  DriverLister
	vehicles VehicleSource
	l        logger.Logger
}

func New(drivers DriverLister, vehicles VehicleSource, l logger.Logger) *Service {
	return &Service{
		drivers:  drivers,
		vehicles: vehicles,
		l:        l,
	}
}

// ListAssignable returns free drivers ranked by unit number.
// The result is an unlocked snapshot; assignment re-checks every driver.
// On any read failure the directory is empty and the error is returned.
func (s *Service) ListAssignable(ctx context.Context) (models.DriverDirectory, error) {
	const op = "DirectoryService.ListAssignable"
	ctx = wrap.WithAction(ctx, types.ActionListAssignable)

	drivers, err := s.drivers.ListDrivers(ctx)
	if err != nil {
		return models.DriverDirectory{}, wrap.Error(ctx, fmt.Errorf("%s: list drivers: %w", op, err))
	}

	var vehicles models.VehicleMap
	if s.vehicles != nil {
		vehicles, err = s.vehicles.VehicleMap(ctx)
		if err != nil {
			return models.DriverDirectory{}, wrap.Error(ctx, fmt.Errorf("%s: load vehicles: %w", op, err))
		}
	}

	dir := Build(drivers, vehicles)

	metrics.DirectoryDriversGauge.WithLabelValues("assignable").Set(float64(len(dir.Assignable)))
	metrics.DirectoryDriversGauge.WithLabelValues("without_unit").Set(float64(len(dir.WithoutUnit)))
	s.l.Debug(ctx, "driver directory built",
		"drivers", len(drivers),
		"assignable", len(dir.Assignable),
		"without_unit", len(dir.WithoutUnit),
	)

	return dir, nil
}

// Build derives the directory from already loaded records.
func Build(drivers []*models.User, vehicles models.VehicleMap) models.DriverDirectory {
	dir := models.DriverDirectory{
		Assignable:  make([]models.DirectoryEntry, 0, len(drivers)),
		WithoutUnit: make([]models.DirectoryEntry, 0),
	}

	for _, d := range drivers {
		if !d.IsDriver() || d.HasActiveTrip() {
			continue
		}

		unit, ok := resolveUnit(d, vehicles)
		entry := models.DirectoryEntry{
			DriverID:          d.ID,
			Name:              d.Name,
			Label:             label(unit, ok),
			VehicleID:         d.AssignedVehicleID,
			AvailabilityState: d.AvailabilityState,
			LastLocation:      d.LastLocation,
			HasUnit:           ok,
		}

		if ok {
			dir.Assignable = append(dir.Assignable, entry)
		} else {
			dir.WithoutUnit = append(dir.WithoutUnit, entry)
		}
	}

	sort.SliceStable(dir.Assignable, func(i, j int) bool {
		a, b := dir.Assignable[i], dir.Assignable[j]
		ka, kb := sortKey(a.Label), sortKey(b.Label)
		if ka != kb {
			return ka < kb
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.DriverID < b.DriverID
	})

	return dir
}
