package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const leasePrefix = "dispatch:sweep:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// SweepLease keeps one sweep of a kind running across instances.
type SweepLease struct {
	rdb *goredis.Client
}

func NewSweepLease(rdb *goredis.Client) *SweepLease {
	return &SweepLease{rdb: rdb}
}

// Acquire takes the named lease for ttl. ok is false when another holder has it.
// The returned release func is a no-op when ok is false.
func (l *SweepLease) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	key := leasePrefix + name
	token := uuid.NewString()

	ok, err = l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return noRelease, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return noRelease, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("release lease %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}

func noRelease(context.Context) error { return nil }
