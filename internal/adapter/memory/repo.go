package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
)

type TripRepo struct {
	s *Store
}

func (r *TripRepo) Get(ctx context.Context, id string) (*models.Trip, error) {
	return r.get(ctx, "TripRepo.Get", id)
}

func (r *TripRepo) GetForUpdate(ctx context.Context, id string) (*models.Trip, error) {
	return r.get(ctx, "TripRepo.GetForUpdate", id)
}

func (r *TripRepo) get(ctx context.Context, op, id string) (*models.Trip, error) {
	var out *models.Trip
	err := r.s.exec(ctx, op, func(st *txState) error {
		t, ok := st.data.trips[id]
		if !ok {
			return types.ErrTripNotFound
		}
		out = t.Clone()
		return nil
	})
	return out, err
}

func (r *TripRepo) MarkAssigned(ctx context.Context, tripID, driverID string) (time.Time, error) {
	const op = "TripRepo.MarkAssigned"

	var assignedAt time.Time
	err := r.s.exec(ctx, op, func(st *txState) error {
		t, ok := st.data.trips[tripID]
		if !ok || t.Status != types.TripRequested || t.HasDriver() {
			return fmt.Errorf("%s: %w", op, types.ErrTripAlreadyAssigned)
		}
		at := st.now
		t.DriverID = &driverID
		t.Status = types.TripAssigned
		t.AssignedAt = &at
		assignedAt = at
		return nil
	})
	return assignedAt, err
}

func (r *TripRepo) Create(ctx context.Context, t *models.Trip) (*models.Trip, error) {
	err := r.s.exec(ctx, "TripRepo.Create", func(st *txState) error {
		if _, exists := st.data.trips[t.ID]; exists {
			return fmt.Errorf("TripRepo.Create: duplicate id %q: %w", t.ID, types.ErrInvalidInput)
		}
		t.CreatedAt = st.now
		st.data.trips[t.ID] = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TripRepo) ListRequested(ctx context.Context, filters models.Filters) ([]*models.Trip, models.Metadata, error) {
	var (
		page  []*models.Trip
		total int
	)
	err := r.s.exec(ctx, "TripRepo.ListRequested", func(st *txState) error {
		matched := make([]*models.Trip, 0)
		for _, t := range st.data.trips {
			if t.Status == types.TripRequested && t.DeletedAt == nil {
				matched = append(matched, t.Clone())
			}
		}

		desc := filters.NewestFirst()
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				if desc {
					return a.CreatedAt.After(b.CreatedAt)
				}
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})

		total = len(matched)
		start := min(filters.Offset(), total)
		end := min(start+filters.Limit(), total)
		page = matched[start:end]
		return nil
	})
	if err != nil {
		return nil, models.Metadata{}, err
	}
	return page, models.NewMetadata(total, filters), nil
}

// Upsert stores t as given, stamping created_at when it is zero.
func (r *TripRepo) Upsert(ctx context.Context, t *models.Trip) error {
	return r.s.exec(ctx, "TripRepo.Upsert", func(st *txState) error {
		c := t.Clone()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = st.now
		}
		st.data.trips[t.ID] = c
		return nil
	})
}

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "UserRepo.Get", id)
}

func (r *UserRepo) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "UserRepo.GetForUpdate", id)
}

func (r *UserRepo) get(ctx context.Context, op, id string) (*models.User, error) {
	var out *models.User
	err := r.s.exec(ctx, op, func(st *txState) error {
		u, ok := st.data.users[id]
		if !ok {
			return types.ErrUserNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r *UserRepo) MarkBusy(ctx context.Context, driverID, tripID string) error {
	return r.s.exec(ctx, "UserRepo.MarkBusy", func(st *txState) error {
		u, ok := st.data.users[driverID]
		if !ok {
			return types.ErrUserNotFound
		}
		if u.HasActiveTrip() {
			return types.ErrDriverAlreadyBusy
		}
		at := st.now
		u.ActiveTripID = &tripID
		u.AvailabilityState = types.DriverBusy
		u.IsAvailable = false
		u.BusySince = &at
		u.UpdatedAt = at
		return nil
	})
}

func (r *UserRepo) SetActiveTrip(ctx context.Context, userID, tripID string) error {
	return r.s.exec(ctx, "UserRepo.SetActiveTrip", func(st *txState) error {
		u, ok := st.data.users[userID]
		if !ok {
			return types.ErrUserNotFound
		}
		u.ActiveTripID = &tripID
		u.UpdatedAt = st.now
		return nil
	})
}

func (r *UserRepo) ListDrivers(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, "UserRepo.ListDrivers", func(u *models.User) bool {
		return u.IsDriver()
	})
}

func (r *UserRepo) ListBusyDrivers(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, "UserRepo.ListBusyDrivers", func(u *models.User) bool {
		return u.IsDriver() && u.AvailabilityState == types.DriverBusy
	})
}

func (r *UserRepo) ListIdleCandidates(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, "UserRepo.ListIdleCandidates", isIdleCandidate)
}

func isIdleCandidate(u *models.User) bool {
	return u.IsDriver() &&
		!u.HasActiveTrip() &&
		u.AvailabilityState != types.DriverOffline &&
		(u.AvailabilityState == types.DriverAvailable || u.IsAvailable)
}

func (r *UserRepo) list(ctx context.Context, op string, match func(u *models.User) bool) ([]*models.User, error) {
	var out []*models.User
	err := r.s.exec(ctx, op, func(st *txState) error {
		out = make([]*models.User, 0)
		for _, u := range st.data.users {
			if match(u) {
				out = append(out, u.Clone())
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) ReleaseStuck(ctx context.Context, driverID string, cutoff time.Time) (bool, error) {
	var released bool
	err := r.s.exec(ctx, "UserRepo.ReleaseStuck", func(st *txState) error {
		u, ok := st.data.users[driverID]
		if !ok || u.AvailabilityState != types.DriverBusy || u.BusySince == nil || u.BusySince.After(cutoff) {
			return nil
		}
		u.ActiveTripID = nil
		u.AvailabilityState = types.DriverOffline
		u.IsAvailable = false
		u.BusySince = nil
		u.UpdatedAt = st.now
		released = true
		return nil
	})
	return released, err
}

func (r *UserRepo) MarkIdleOffline(ctx context.Context, driverID string, cutoff time.Time) (bool, error) {
	var marked bool
	err := r.s.exec(ctx, "UserRepo.MarkIdleOffline", func(st *txState) error {
		u, ok := st.data.users[driverID]
		if !ok || !isIdleCandidate(u) || u.LastActivityAt == nil || u.LastActivityAt.After(cutoff) {
			return nil
		}
		u.AvailabilityState = types.DriverOffline
		u.IsAvailable = false
		u.UpdatedAt = st.now
		marked = true
		return nil
	})
	return marked, err
}

func (r *UserRepo) Upsert(ctx context.Context, u *models.User) error {
	return r.s.exec(ctx, "UserRepo.Upsert", func(st *txState) error {
		c := u.Clone()
		c.UpdatedAt = st.now
		st.data.users[u.ID] = c
		return nil
	})
}

type VehicleRepo struct {
	s *Store
}

func (r *VehicleRepo) VehicleMap(ctx context.Context) (models.VehicleMap, error) {
	var out models.VehicleMap
	err := r.s.exec(ctx, "VehicleRepo.VehicleMap", func(st *txState) error {
		out = make(models.VehicleMap, len(st.data.vehicles))
		for id, v := range st.data.vehicles {
			out[id] = v
		}
		return nil
	})
	return out, err
}

func (r *VehicleRepo) Upsert(ctx context.Context, v models.Vehicle) error {
	return r.s.exec(ctx, "VehicleRepo.Upsert", func(st *txState) error {
		st.data.vehicles[v.ID] = v
		return nil
	})
}

type Clock struct {
	s *Store
}

func (c *Clock) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := c.s.exec(ctx, "Clock.Now", func(st *txState) error {
		now = st.now
		return nil
	})
	return now, err
}
