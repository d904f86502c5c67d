package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/models"
	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

const (
	vehicleMapKey = "dispatch:vehicles"
	// loadedField marks a populated hash so an empty fleet is still a cache hit.
	loadedField = "__loaded"
)

type VehicleSource interface {
	VehicleMap(ctx context.Context) (models.VehicleMap, error)
}

// VehicleCache serves the vehicle map from a Redis hash, refilling it from the store on miss.
// Redis errors are logged and the store is read directly.
type VehicleCache struct {
	rdb    *goredis.Client
	source VehicleSource
	ttl    time.Duration
	log    logger.Logger
}

func NewVehicleCache(rdb *goredis.Client, source VehicleSource, ttl time.Duration, log logger.Logger) *VehicleCache {
	return &VehicleCache{
		rdb:    rdb,
		source: source,
		ttl:    ttl,
		log:    log,
	}
}

func (c *VehicleCache) VehicleMap(ctx context.Context) (models.VehicleMap, error) {
	cached, err := c.rdb.HGetAll(ctx, vehicleMapKey).Result()
	if err != nil {
		c.log.Warn(ctx, "vehicle cache read failed, using store", "error", err.Error())
	} else if _, ok := cached[loadedField]; ok {
		vehicles, err := decodeVehicles(cached)
		if err == nil {
			return vehicles, nil
		}
		c.log.Warn(ctx, "vehicle cache entry corrupt, reloading", "error", err.Error())
	}

	vehicles, err := c.source.VehicleMap(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.fill(ctx, vehicles); err != nil {
		c.log.Warn(ctx, "vehicle cache refill failed", "error", err.Error())
	}
	return vehicles, nil
}

// Invalidate drops the cached map.
func (c *VehicleCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, vehicleMapKey).Err()
}

func (c *VehicleCache) fill(ctx context.Context, vehicles models.VehicleMap) error {
	fields := make(map[string]any, len(vehicles)+1)
	fields[loadedField] = "1"
	for id, v := range vehicles {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode vehicle %s: %w", id, err)
		}
		fields[id] = raw
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, vehicleMapKey)
	pipe.HSet(ctx, vehicleMapKey, fields)
	pipe.Expire(ctx, vehicleMapKey, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func decodeVehicles(hash map[string]string) (models.VehicleMap, error) {
	vehicles := make(models.VehicleMap, len(hash))
	for id, raw := range hash {
		if id == loadedField {
			continue
		}
		var v models.Vehicle
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode vehicle %s: %w", id, err)
		}
		vehicles[id] = v
	}
	return vehicles, nil
}
