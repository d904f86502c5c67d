// Package memory is an in-process record store with the same contract as the
// postgres adapter. Transactions are serialized and applied copy-on-commit.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
)

type dataset struct {
	users    map[string]*models.User
	trips    map[string]*models.Trip
	vehicles map[string]models.Vehicle
}

func newDataset() *dataset {
	return &dataset{
		users:    make(map[string]*models.User),
		trips:    make(map[string]*models.Trip),
		vehicles: make(map[string]models.Vehicle),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for id, u := range d.users {
		c.users[id] = u.Clone()
	}
	for id, t := range d.trips {
		c.trips[id] = t.Clone()
	}
	for id, v := range d.vehicles {
		c.vehicles[id] = v
	}
	return c
}

// txState is what a running transaction sees: its private copy and the
// timestamp every now() inside it resolves to.
type txState struct {
	data *dataset
	now  time.Time
}

type ctxKeyTx struct{}

type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time

	faultMu sync.Mutex
	fault   func(op string) error
}

type Option func(*Store)

// WithNow replaces the server clock.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		data: newDataset(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetFault installs a hook consulted before every repository call; a non-nil
// return fails that call. Pass nil to clear it.
func (s *Store) SetFault(fn func(op string) error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.fault = fn
}

func (s *Store) checkFault(op string) error {
	s.faultMu.Lock()
	fn := s.fault
	s.faultMu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(op)
}

// Ping answers unless a fault is injected for "Store.Ping".
func (s *Store) Ping(ctx context.Context) error {
	return s.checkFault("Store.Ping")
}

// Do runs fn in a serialized transaction. Writes become visible only when fn returns nil.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ctxKeyTx{}).(*txState); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{data: s.data.clone(), now: s.now()}
	if err := fn(context.WithValue(ctx, ctxKeyTx{}, st)); err != nil {
		return err
	}
	s.data = st.data
	return nil
}

// exec runs fn against the caller's transaction, or against committed state as a single statement.
func (s *Store) exec(ctx context.Context, op string, fn func(st *txState) error) error {
	if err := s.checkFault(op); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if st, ok := ctx.Value(ctxKeyTx{}).(*txState); ok {
		return fn(st)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&txState{data: s.data, now: s.now()})
}

// PutUser stores a copy of u, replacing any record with the same id.
func (s *Store) PutUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = u.Clone()
}

func (s *Store) PutTrip(t *models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.trips[t.ID] = t.Clone()
}

func (s *Store) PutVehicle(v models.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.vehicles[v.ID] = v
}

// User returns a copy of the committed record, or nil.
func (s *Store) User(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.users[id].Clone()
}

// Trip returns a copy of the committed record, or nil.
func (s *Store) Trip(id string) *models.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.trips[id].Clone()
}

func (s *Store) Trips() *TripRepo       { return &TripRepo{s: s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Vehicles() *VehicleRepo { return &VehicleRepo{s: s} }
func (s *Store) Clock() *Clock          { return &Clock{s: s} }
