package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-dispatch/pkg/metrics"
)

type Config struct {
	StuckBusyCeiling time.Duration
	IdleCeiling      time.Duration
	// WriteAttempts bounds tries per driver write when the store is unavailable.
	WriteAttempts int
	RetryInterval time.Duration
	LockTTL       time.Duration
}

func (c Config) withDefaults() Config {
	if c.StuckBusyCeiling <= 0 {
		c.StuckBusyCeiling = time.Hour
	}
	if c.IdleCeiling <= 0 {
		c.IdleCeiling = 4 * time.Hour
	}
	if c.WriteAttempts <= 0 {
		c.WriteAttempts = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 100 * time.Millisecond
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 2 * time.Minute
	}
	return c
}

// Service corrects driver availability drift. Each sweep enumerates drivers,
// decides locally and writes each driver independently with a conditional
// update, so sweeps are idempotent and may overlap with assignment.
type Service struct {
	drivers   DriverStore
	clock     Clock
	locker    Locker
	publisher Publisher
	cfg       Config
	l         logger.Logger
}

// New returns a reconciler. locker and publisher may be nil.
func New(drivers DriverStore, clock Clock, locker Locker, publisher Publisher, cfg Config, l logger.Logger) *Service {
	return &Service{
		drivers:   drivers,
		clock:     clock,
		locker:    locker,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		l:         l,
	}
}

// SweepStuckBusy sets drivers busy for at least the stuck ceiling to offline and
// clears their trip link. Trips are not touched.
func (s *Service) SweepStuckBusy(ctx context.Context) (*models.SweepReport, error) {
	ctx = wrap.WithAction(ctx, types.ActionSweepStuckBusy)

	return s.run(ctx, types.SweepStuckBusy, s.cfg.StuckBusyCeiling, s.drivers.ListBusyDrivers,
		func(ctx context.Context, d *models.User, cutoff time.Time) (verdict, error) {
			if d.BusySince == nil {
				return skip, nil
			}
			if d.BusySince.After(cutoff) {
				return notDue, nil
			}
			released, err := s.drivers.ReleaseStuck(ctx, d.ID, cutoff)
			return written(released), err
		})
}

// SweepIdle sets free drivers with no activity for at least the idle ceiling to offline.
// Drivers without a last activity timestamp are reported and left alone.
func (s *Service) SweepIdle(ctx context.Context) (*models.SweepReport, error) {
	ctx = wrap.WithAction(ctx, types.ActionSweepIdle)

	return s.run(ctx, types.SweepIdle, s.cfg.IdleCeiling, s.drivers.ListIdleCandidates,
		func(ctx context.Context, d *models.User, cutoff time.Time) (verdict, error) {
			if d.HasActiveTrip() || d.AvailabilityState == types.DriverOffline {
				return notDue, nil
			}
			if d.LastActivityAt == nil {
				return skip, nil
			}
			if d.LastActivityAt.After(cutoff) {
				return notDue, nil
			}
			marked, err := s.drivers.MarkIdleOffline(ctx, d.ID, cutoff)
			return written(marked), err
		})
}

// RunAll runs both sweeps one after the other. The error joins listing failures of either.
func (s *Service) RunAll(ctx context.Context) ([]*models.SweepReport, error) {
	stuck, errStuck := s.SweepStuckBusy(ctx)
	idle, errIdle := s.SweepIdle(ctx)
	return []*models.SweepReport{stuck, idle}, errors.Join(errStuck, errIdle)
}

type verdict int

const (
	notDue verdict = iota
	skip
	corrected
	// changed means the conditional write matched nothing.
	changed
)

func written(ok bool) verdict {
	if ok {
		return corrected
	}
	return changed
}

type listFunc func(ctx context.Context) ([]*models.User, error)

type correctFunc func(ctx context.Context, d *models.User, cutoff time.Time) (verdict, error)

func (s *Service) run(ctx context.Context, sweep types.SweepName, ceiling time.Duration, list listFunc, correct correctFunc) (*models.SweepReport, error) {
	const op = "Reconciler.run"

	report := &models.SweepReport{Sweep: sweep, StartedAt: time.Now().UTC()}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		metrics.RecordSweep(sweep.String(), report.Corrected, report.Skipped, report.Failed, report.Duration)
	}()

	release, ok := s.lease(ctx, sweep)
	if !ok {
		report.Contended = true
		s.l.Info(ctx, "sweep lease held elsewhere, skipping run", "sweep", sweep)
		return report, nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.l.Warn(ctx, "failed to release sweep lease", "sweep", sweep, "error", err.Error())
		}
	}()

	now, err := s.clock.Now(ctx)
	if err != nil {
		return report, wrap.Error(ctx, fmt.Errorf("%s: read server time: %w", op, err))
	}
	report.Cutoff = now.Add(-ceiling)

	drivers, err := list(ctx)
	if err != nil {
		return report, wrap.Error(ctx, fmt.Errorf("%s: list drivers: %w", op, err))
	}
	report.Scanned = len(drivers)

	for _, d := range drivers {
		if err := ctx.Err(); err != nil {
			return report, wrap.Error(ctx, err)
		}

		dctx := wrap.WithDriverID(ctx, d.ID)
		v, err := s.withRetry(dctx, func() (verdict, error) { return correct(dctx, d, report.Cutoff) })
		if err != nil {
			report.Failed++
			s.l.Error(wrap.ErrorCtx(dctx, err), "failed to correct driver, continuing", err)
			continue
		}

		switch v {
		case skip:
			report.Skipped++
			s.l.Info(dctx, "driver skipped: timestamp missing", "sweep", sweep)
		case changed:
			report.Skipped++
			s.l.Debug(dctx, "driver changed since scan, left as is", "sweep", sweep)
		case corrected:
			report.Corrected++
			report.CorrectedDrivers = append(report.CorrectedDrivers, d.ID)
			s.l.Info(dctx, "driver set offline", "sweep", sweep)
			s.publish(dctx, sweep, d, now)
		}
	}

	s.l.Info(ctx, "sweep finished",
		"sweep", sweep,
		"scanned", report.Scanned,
		"corrected", report.Corrected,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// withRetry retries fn while the store reports itself unavailable.
func (s *Service) withRetry(ctx context.Context, fn func() (verdict, error)) (verdict, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.cfg.WriteAttempts-1)), ctx)

	var v verdict
	err := backoff.Retry(func() error {
		var err error
		v, err = fn()
		if err != nil && !errors.Is(err, types.ErrStoreUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	return v, err
}

// lease returns ok=false only when another holder owns the lease. A broken
// locker does not stop the sweep since every write is conditional.
func (s *Service) lease(ctx context.Context, sweep types.SweepName) (func(context.Context) error, bool) {
	noop := func(context.Context) error { return nil }
	if s.locker == nil {
		return noop, true
	}

	release, ok, err := s.locker.Acquire(ctx, sweep.String(), s.cfg.LockTTL)
	if err != nil {
		s.l.Warn(ctx, "sweep lease unavailable, running without it", "sweep", sweep, "error", err.Error())
		return noop, true
	}
	return release, ok
}

func (s *Service) publish(ctx context.Context, sweep types.SweepName, d *models.User, now time.Time) {
	if s.publisher == nil {
		return
	}

	msg := models.DriverStatusMessage{
		DriverID:      d.ID,
		Status:        types.DriverOffline,
		Reason:        sweep,
		Timestamp:     now,
		CorrelationID: wrap.FromContext(ctx).RequestID,
	}
	if sweep == types.SweepStuckBusy && d.ActiveTripID != nil {
		msg.ReleasedTrip = *d.ActiveTripID
	}

	if err := s.publisher.PublishDriverStatus(ctx, msg); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish driver status event", err)
	}
}
