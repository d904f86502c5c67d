package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

type stubSource struct {
	vehicles models.VehicleMap
	err      error
	calls    int
}

func (s *stubSource) VehicleMap(context.Context) (models.VehicleMap, error) {
	s.calls++
	return s.vehicles, s.err
}

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *goredis.Client {
	t.Helper()
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestVehicleCache_FallsBackToStore(t *testing.T) {
	src := &stubSource{vehicles: models.VehicleMap{"V1": {ID: "V1", UnitNumber: "12"}}}
	cache := NewVehicleCache(unreachable(t), src, time.Minute, logger.Discard())

	got, err := cache.VehicleMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12", got["V1"].UnitNumber)
	assert.Equal(t, 1, src.calls)
}

func TestVehicleCache_StoreErrorSurfaces(t *testing.T) {
	errDown := errors.New("store down")
	cache := NewVehicleCache(unreachable(t), &stubSource{err: errDown}, time.Minute, logger.Discard())

	_, err := cache.VehicleMap(context.Background())
	assert.ErrorIs(t, err, errDown)
}

func TestDecodeVehicles(t *testing.T) {
	got, err := decodeVehicles(map[string]string{
		loadedField: "1",
		"V1":        `{"id":"V1","unit_number":"7"}`,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "7", got["V1"].UnitNumber)

	_, err = decodeVehicles(map[string]string{"V2": "{"})
	assert.Error(t, err)
}

func TestSweepLease_AcquireErrorOnUnreachableRedis(t *testing.T) {
	lease := NewSweepLease(unreachable(t))

	release, ok, err := lease.Acquire(context.Background(), "idle", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, release(context.Background()))
}
