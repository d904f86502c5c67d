package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

var serverNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func ago(d time.Duration) *time.Time { return ptr(serverNow.Add(-d)) }

var testCfg = Config{
	StuckBusyCeiling: 60 * time.Minute,
	IdleCeiling:      4 * time.Hour,
	WriteAttempts:    3,
	RetryInterval:    time.Millisecond,
}

func newStore() *memory.Store {
	return memory.New(memory.WithNow(func() time.Time { return serverNow }))
}

func newService(s *memory.Store, store DriverStore, locker Locker, pub Publisher) *Service {
	if store == nil {
		store = s.Users()
	}
	return New(store, s.Clock(), locker, pub, testCfg, logger.Discard())
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []models.DriverStatusMessage
}

func (p *recordingPublisher) PublishDriverStatus(_ context.Context, msg models.DriverStatusMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func TestSweepStuckBusy_ReleasesDriverPastCeiling(t *testing.T) {
	s := newStore()
	s.PutTrip(&models.Trip{ID: "T2", Status: types.TripAssigned, DriverID: ptr("D2")})
	s.PutUser(&models.User{ID: "D2", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T2"), BusySince: ago(90 * time.Minute)})
	s.PutUser(&models.User{ID: "D5", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T5"), BusySince: ago(10 * time.Minute)})
	pub := &recordingPublisher{}

	report, err := newService(s, nil, nil, pub).SweepStuckBusy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Corrected)
	assert.Equal(t, []string{"D2"}, report.CorrectedDrivers)
	assert.Equal(t, serverNow.Add(-time.Hour), report.Cutoff)

	d2 := s.User("D2")
	assert.Equal(t, types.DriverOffline, d2.AvailabilityState)
	assert.Nil(t, d2.ActiveTripID)
	assert.Nil(t, d2.BusySince)

	assert.Equal(t, types.DriverBusy, s.User("D5").AvailabilityState)

	// the trip itself is left alone
	trip := s.Trip("T2")
	assert.Equal(t, types.TripAssigned, trip.Status)
	assert.Equal(t, "D2", *trip.DriverID)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "D2", pub.msgs[0].DriverID)
	assert.Equal(t, "T2", pub.msgs[0].ReleasedTrip)
	assert.Equal(t, types.SweepStuckBusy, pub.msgs[0].Reason)
}

func TestSweepStuckBusy_Idempotent(t *testing.T) {
	s := newStore()
	s.PutUser(&models.User{ID: "D2", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T2"), BusySince: ago(2 * time.Hour)})
	s.PutUser(&models.User{ID: "D6", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T6")})
	svc := newService(s, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.SweepStuckBusy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Corrected)
	assert.Equal(t, 1, first.Skipped) // D6 has no busy_since
	afterFirst := []*models.User{s.User("D2"), s.User("D6")}

	second, err := svc.SweepStuckBusy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Corrected)
	assert.Equal(t, afterFirst, []*models.User{s.User("D2"), s.User("D6")})
}

func TestSweepIdle_MarksLongIdleDriversOffline(t *testing.T) {
	s := newStore()
	s.PutUser(&models.User{ID: "idle", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, IsAvailable: true, LastActivityAt: ago(5 * time.Hour)})
	s.PutUser(&models.User{ID: "flag-only", Role: types.DriverRole, IsAvailable: true, LastActivityAt: ago(6 * time.Hour)})
	s.PutUser(&models.User{ID: "recent", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, LastActivityAt: ago(time.Hour)})
	s.PutUser(&models.User{ID: "D3", Role: types.DriverRole, AvailabilityState: types.DriverAvailable})
	s.PutUser(&models.User{ID: "on-trip", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T1"), IsAvailable: true, LastActivityAt: ago(9 * time.Hour)})
	d3Before := s.User("D3")

	report, err := newService(s, nil, nil, nil).SweepIdle(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idle", "flag-only"}, report.CorrectedDrivers)
	assert.Equal(t, 1, report.Skipped)

	for _, id := range []string{"idle", "flag-only"} {
		u := s.User(id)
		assert.Equal(t, types.DriverOffline, u.AvailabilityState, id)
		assert.False(t, u.IsAvailable, id)
	}
	assert.Equal(t, types.DriverAvailable, s.User("recent").AvailabilityState)
	assert.Equal(t, types.DriverBusy, s.User("on-trip").AvailabilityState)
	assert.Equal(t, d3Before, s.User("D3"))
}

func TestSweeps_OfflineDriverNeverModified(t *testing.T) {
	s := newStore()
	offline := &models.User{
		ID: "D7", Role: types.DriverRole, AvailabilityState: types.DriverOffline,
		IsAvailable: true, LastActivityAt: ago(48 * time.Hour), BusySince: ago(48 * time.Hour),
	}
	s.PutUser(offline)
	before := s.User("D7")
	svc := newService(s, nil, nil, nil)

	reports, err := svc.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Zero(t, r.Corrected)
	}
	assert.Equal(t, before, s.User("D7"))
}

// flakyStore fails writes for chosen drivers a number of times.
type flakyStore struct {
	DriverStore
	mu       sync.Mutex
	failures map[string]int
	err      error
	calls    map[string]int
}

func (f *flakyStore) ReleaseStuck(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	f.mu.Lock()
	f.calls[id]++
	if f.failures[id] != 0 {
		f.failures[id]--
		f.mu.Unlock()
		return false, f.err
	}
	f.mu.Unlock()
	return f.DriverStore.ReleaseStuck(ctx, id, cutoff)
}

func TestSweepStuckBusy_OneFailureDoesNotAbortOthers(t *testing.T) {
	s := newStore()
	for _, id := range []string{"A", "B", "C"} {
		s.PutUser(&models.User{ID: id, Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T-" + id), BusySince: ago(3 * time.Hour)})
	}
	flaky := &flakyStore{
		DriverStore: s.Users(),
		failures:    map[string]int{"B": 100},
		err:         fmt.Errorf("%w: connection reset", types.ErrStoreUnavailable),
		calls:       map[string]int{},
	}

	report, err := newService(s, flaky, nil, nil).SweepStuckBusy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Corrected)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, testCfg.WriteAttempts, flaky.calls["B"])

	assert.Equal(t, types.DriverOffline, s.User("A").AvailabilityState)
	assert.Equal(t, types.DriverBusy, s.User("B").AvailabilityState)
	assert.Equal(t, types.DriverOffline, s.User("C").AvailabilityState)
}

func TestSweepStuckBusy_TransientUnavailabilityIsRetried(t *testing.T) {
	s := newStore()
	s.PutUser(&models.User{ID: "A", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T1"), BusySince: ago(3 * time.Hour)})
	flaky := &flakyStore{
		DriverStore: s.Users(),
		failures:    map[string]int{"A": 1},
		err:         types.ErrStoreUnavailable,
		calls:       map[string]int{},
	}

	report, err := newService(s, flaky, nil, nil).SweepStuckBusy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Corrected)
	assert.Equal(t, 2, flaky.calls["A"])
}

func TestSweepStuckBusy_OtherErrorsAreNotRetried(t *testing.T) {
	s := newStore()
	s.PutUser(&models.User{ID: "A", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T1"), BusySince: ago(3 * time.Hour)})
	flaky := &flakyStore{
		DriverStore: s.Users(),
		failures:    map[string]int{"A": 5},
		err:         errors.New("constraint violated"),
		calls:       map[string]int{},
	}

	report, err := newService(s, flaky, nil, nil).SweepStuckBusy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, flaky.calls["A"])
}

func TestSweep_ListingFailureIsReturned(t *testing.T) {
	s := newStore()
	s.SetFault(func(op string) error {
		if op == "UserRepo.ListIdleCandidates" {
			return types.ErrStoreUnavailable
		}
		return nil
	})

	reports, err := newService(s, nil, nil, nil).RunAll(context.Background())
	require.ErrorIs(t, err, types.ErrStoreUnavailable)
	require.Len(t, reports, 2)
	assert.Equal(t, types.SweepStuckBusy, reports[0].Sweep)
}

type stubLocker struct {
	held     bool
	err      error
	released int
}

func (l *stubLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return func(context.Context) error { return nil }, false, l.err
	}
	if l.held {
		return func(context.Context) error { return nil }, false, nil
	}
	return func(context.Context) error { l.released++; return nil }, true, nil
}

func TestSweep_Lease(t *testing.T) {
	seed := func() *memory.Store {
		s := newStore()
		s.PutUser(&models.User{ID: "A", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T1"), BusySince: ago(3 * time.Hour)})
		return s
	}

	t.Run("held elsewhere", func(t *testing.T) {
		s := seed()
		report, err := newService(s, nil, &stubLocker{held: true}, nil).SweepStuckBusy(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Contended)
		assert.Equal(t, types.DriverBusy, s.User("A").AvailabilityState)
	})

	t.Run("acquired and released", func(t *testing.T) {
		s := seed()
		locker := &stubLocker{}
		report, err := newService(s, nil, locker, nil).SweepStuckBusy(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Corrected)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("locker broken", func(t *testing.T) {
		s := seed()
		report, err := newService(s, nil, &stubLocker{err: errors.New("redis down")}, nil).SweepStuckBusy(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Corrected)
	})
}
