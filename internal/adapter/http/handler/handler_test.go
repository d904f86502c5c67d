package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/assignment"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/directory"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/reconciler"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/trip"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

const (
	passengerID      = "6f1c2a4e-8a55-4d0b-9c1e-0c6f3a1b2d11"
	otherPassengerID = "6f1c2a4e-8a55-4d0b-9c1e-0c6f3a1b2d12"
)

var serverNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store *memory.Store
	mux   *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.New(memory.WithNow(func() time.Time { return serverNow }))
	s.PutVehicle(models.Vehicle{ID: "V1", UnitNumber: "12"})
	s.PutUser(&models.User{ID: passengerID, Role: types.PassengerRole})
	s.PutUser(&models.User{ID: otherPassengerID, Role: types.PassengerRole})
	s.PutUser(&models.User{ID: "D1", Name: "Yerlan", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, IsAvailable: true, AssignedVehicleID: ptr("V1")})
	s.PutUser(&models.User{ID: "D2", Name: "Askar", Role: types.DriverRole, AvailabilityState: types.DriverAvailable})
	s.PutUser(&models.User{
		ID: "D3", Role: types.DriverRole, AvailabilityState: types.DriverBusy, ActiveTripID: ptr("T9"),
		BusySince: ptr(serverNow.Add(-90 * time.Minute)),
	})
	s.PutTrip(&models.Trip{ID: "T1", Status: types.TripRequested, PassengerID: passengerID, CreatedAt: serverNow.Add(-time.Minute)})

	l := logger.Discard()
	dispatch := NewDispatch(
		directory.New(s.Users(), s.Vehicles(), l),
		assignment.New(s.Trips(), s.Users(), s, nil, l),
		l,
	)
	trips := NewTrip(trip.New(s.Trips(), s.Users(), s, trip.Tariff{BaseFare: 30, PerKm: 10}, l), l)
	sweeps := NewReconciler(reconciler.New(s.Users(), s.Clock(), nil, nil, reconciler.Config{RetryInterval: time.Millisecond}, l), l)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /drivers/assignable", dispatch.ListAssignable)
	mux.HandleFunc("POST /trips/{trip_id}/assign", dispatch.AssignDriver)
	mux.HandleFunc("POST /trips", trips.CreateTrip)
	mux.HandleFunc("GET /trips/requested", trips.ListRequested)
	mux.HandleFunc("POST /reconciler/sweeps/stuck-busy", sweeps.SweepStuckBusy)
	mux.HandleFunc("POST /reconciler/sweeps/idle", sweeps.SweepIdle)
	mux.HandleFunc("GET /health", NewHealth("dispatch-service", map[string]Check{
		"store": s.Ping,
		"redis": func(context.Context) error { return nil },
	}, l).HealthCheck)

	return &fixture{store: s, mux: mux}
}

func (f *fixture) do(t *testing.T, ctx context.Context, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body)).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestAssignDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, body := f.do(t, ctx, http.MethodPost, "/trips/T1/assign", `{"driver_id":"D1"}`)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "T1", body["trip_id"])
	assert.Equal(t, "D1", body["driver_id"])
	assert.Equal(t, "assigned", body["status"])
	assert.Equal(t, serverNow.Format(time.RFC3339), body["assigned_at"])

	rec, body = f.do(t, ctx, http.MethodPost, "/trips/T1/assign", `{"driver_id":"D1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "trip_already_assigned", body["reason"])
}

func TestAssignDriver_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		fault  error
		status int
		reason string
	}{
		{name: "unknown trip", target: "/trips/T404/assign", body: `{"driver_id":"D1"}`, status: http.StatusNotFound, reason: "not_found"},
		{name: "busy driver", target: "/trips/T1/assign", body: `{"driver_id":"D3"}`, status: http.StatusConflict, reason: "driver_already_busy"},
		{name: "passenger as driver", target: "/trips/T1/assign", body: `{"driver_id":"` + passengerID + `"}`, status: http.StatusConflict, reason: "not_a_driver"},
		{name: "missing driver id", target: "/trips/T1/assign", body: `{"driver_id":"  "}`, status: http.StatusUnprocessableEntity},
		{name: "unknown field", target: "/trips/T1/assign", body: `{"driver":"D1"}`, status: http.StatusBadRequest},
		{name: "store down", target: "/trips/T1/assign", body: `{"driver_id":"D1"}`, fault: types.ErrStoreUnavailable, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.fault != nil {
				f.store.SetFault(func(string) error { return fmt.Errorf("injected: %w", tt.fault) })
			}

			rec, body := f.do(t, context.Background(), http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, body)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, body["reason"])
			}
			if tt.status == http.StatusServiceUnavailable {
				assert.Equal(t, retryAfterSeconds, rec.Header().Get("Retry-After"))
				assert.Equal(t, "store_unavailable", body["reason"])
			}

			f.store.SetFault(nil)
			assert.False(t, f.store.Trip("T1").HasDriver())
		})
	}
}

func TestListAssignable(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, context.Background(), http.MethodGet, "/drivers/assignable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "warning")

	drivers := body["drivers"].(map[string]any)
	assignable := drivers["assignable"].([]any)
	require.Len(t, assignable, 1)
	assert.Equal(t, "Unit 12", assignable[0].(map[string]any)["label"])

	withoutUnit := drivers["without_unit"].([]any)
	require.Len(t, withoutUnit, 1)
	assert.Equal(t, "D2", withoutUnit[0].(map[string]any)["driver_id"])
}

func TestListAssignable_StoreFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.store.SetFault(func(op string) error {
		if op == "UserRepo.ListDrivers" {
			return types.ErrStoreUnavailable
		}
		return nil
	})

	rec, body := f.do(t, context.Background(), http.MethodGet, "/drivers/assignable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, directoryWarning, body["warning"])

	drivers := body["drivers"].(map[string]any)
	assert.Empty(t, drivers["assignable"])
	assert.Empty(t, drivers["without_unit"])
}

func TestCreateTrip(t *testing.T) {
	f := newFixture(t)
	ctx := models.WithUser(context.Background(), &models.Principal{ID: otherPassengerID, Role: types.PassengerRole})

	// The passenger id in the body is ignored for passenger tokens.
	rec, body := f.do(t, ctx, http.MethodPost, "/trips", `{
		"passenger_id": "`+passengerID+`",
		"origin": {"latitude": 43.2389, "longitude": 76.8897},
		"destination": {"latitude": 43.2567, "longitude": 76.9286}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, otherPassengerID, body["passenger_id"])
	assert.Equal(t, "requested", body["status"])
	assert.NotEmpty(t, body["trip_id"])
	assert.Greater(t, body["fare"], 30.0)
}

func TestCreateTrip_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := models.WithUser(context.Background(), &models.Principal{ID: passengerID, Role: types.PassengerRole})

	rec, body := f.do(t, ctx, http.MethodPost, "/trips", `{"origin": {"latitude": 95, "longitude": 0}, "destination": {"latitude": 1, "longitude": 1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["error"], "origin.latitude")

	f.store.PutUser(&models.User{ID: passengerID, Role: types.PassengerRole, ActiveTripID: ptr("T1")})
	rec, body = f.do(t, ctx, http.MethodPost, "/trips", `{"origin": {"latitude": 1, "longitude": 1}, "destination": {"latitude": 2, "longitude": 2}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "passenger_has_active_trip", body["reason"])
}

func TestListRequested(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, context.Background(), http.MethodGet, "/trips/requested?page=1&page_size=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	trips := body["trips"].([]any)
	require.Len(t, trips, 1)
	assert.Equal(t, "T1", trips[0].(map[string]any)["trip_id"])
	assert.EqualValues(t, 1, body["metadata"].(map[string]any)["total_records"])

	rec, body = f.do(t, context.Background(), http.MethodGet, "/trips/requested?page=abc&sort=fare", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := body["error"].(map[string]any)
	assert.Contains(t, errs, "page")
	assert.Contains(t, errs, "sort")
}

func TestSweepStuckBusy(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, context.Background(), http.MethodPost, "/reconciler/sweeps/stuck-busy", "")
	require.Equal(t, http.StatusOK, rec.Code, body)

	report := body["report"].(map[string]any)
	assert.EqualValues(t, 1, report["corrected"])
	assert.Equal(t, types.DriverOffline, f.store.User("D3").AvailabilityState)
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrTripNotFound, http.StatusNotFound},
		{types.ErrPassengerNotFound, http.StatusNotFound},
		{types.ErrDriverNotAvailable, http.StatusConflict},
		{types.ErrAssignmentConflict, http.StatusConflict},
		{fmt.Errorf("op: %w", types.ErrInvalidInput), http.StatusUnprocessableEntity},
		{fmt.Errorf("op: %w", types.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetCode(tt.err), tt.err.Error())
	}
}

func TestDomainErrorResponse_ConflictRetry(t *testing.T) {
	rec := httptest.NewRecorder()
	domainErrorResponse(rec, fmt.Errorf("assign: %w", types.ErrAssignmentConflict))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, true, body["retry"])
	assert.Equal(t, "assignment_conflict", body["reason"])
	assert.Equal(t, types.ErrAssignmentConflict.Error(), body["error"])
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, context.Background(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, map[string]any{"store": "up", "redis": "up"}, body["dependencies"])

	f.store.SetFault(func(op string) error {
		if op == "Store.Ping" {
			return fmt.Errorf("%w: connection refused", types.ErrStoreUnavailable)
		}
		return nil
	})

	rec, body = f.do(t, context.Background(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"store": "down", "redis": "up"}, body["dependencies"])
}
