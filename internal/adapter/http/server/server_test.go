package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/config"
	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/memory"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/assignment"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/auth"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/directory"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/reconciler"
	"github.com/Temutjin2k/taxi-dispatch/internal/service/trip"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

const secret = "test-secret"

func newAPI(t *testing.T, mode types.ServiceMode) (*API, *memory.Store) {
	t.Helper()

	s := memory.New()
	s.PutVehicle(models.Vehicle{ID: "V1", UnitNumber: "12"})
	s.PutUser(&models.User{ID: "P1", Role: types.PassengerRole})
	s.PutUser(&models.User{ID: "D1", Role: types.DriverRole, AvailabilityState: types.DriverAvailable, AssignedVehicleID: func() *string { v := "V1"; return &v }()})
	s.PutTrip(&models.Trip{ID: "T1", Status: types.TripRequested, PassengerID: "P1"})

	l := logger.Discard()
	cfg := config.Config{Mode: mode}
	cfg.Services.DispatchService = "0"
	cfg.Services.ReconcilerService = "0"

	services := Services{
		Reconciler: reconciler.New(s.Users(), s.Clock(), nil, nil, reconciler.Config{}, l),
		Auth:       auth.NewTokenService(secret),
	}
	if mode == types.DispatchService {
		services.Directory = directory.New(s.Users(), s.Vehicles(), l)
		services.Assignment = assignment.New(s.Trips(), s.Users(), s, nil, l)
		services.Trips = trip.New(s.Trips(), s.Users(), s, trip.Tariff{BaseFare: 30, PerKm: 10}, l)
	}

	api, err := New(cfg, services, l)
	require.NoError(t, err)
	return api, s
}

func bearer(t *testing.T, id string, role types.UserRole) string {
	t.Helper()
	token, err := auth.NewTokenService(secret).Issue(id, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutes_Dispatch(t *testing.T) {
	api, store := newAPI(t, types.DispatchService)
	h := api.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/drivers/assignable", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/drivers/assignable", nil)
	req.Header.Set("Authorization", bearer(t, "A1", types.AdminRole))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assignable := body["drivers"].(map[string]any)["assignable"].([]any)
	require.Len(t, assignable, 1)

	req = httptest.NewRequest(http.MethodPost, "/trips/T1/assign", strings.NewReader(`{"driver_id":"D1"}`))
	req.Header.Set("Authorization", bearer(t, "P1", types.PassengerRole))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, store.Trip("T1").HasDriver())

	req = httptest.NewRequest(http.MethodPost, "/trips/T1/assign", strings.NewReader(`{"driver_id":"D1"}`))
	req.Header.Set("Authorization", bearer(t, "A1", types.AdminRole))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, store.Trip("T1").HasDriver())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_assignments_total")
}

func TestRoutes_ReconcilerMode(t *testing.T) {
	api, _ := newAPI(t, types.ReconcilerService)
	h := api.Handler()

	req := httptest.NewRequest(http.MethodPost, "/reconciler/sweeps/idle", nil)
	req.Header.Set("Authorization", bearer(t, "A1", types.AdminRole))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/drivers/assignable", nil)
	req.Header.Set("Authorization", bearer(t, "A1", types.AdminRole))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_RejectsUnknownMode(t *testing.T) {
	_, err := New(config.Config{Mode: types.SweepOnce}, Services{
		Reconciler: reconciler.New(memory.New().Users(), memory.New().Clock(), nil, nil, reconciler.Config{}, logger.Discard()),
		Auth:       auth.NewTokenService(secret),
	}, logger.Discard())
	require.Error(t, err)
}
