package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/taxi-dispatch/pkg/logger"
)

type Config struct {
	Addr        string
	Password    string
	DB          int
	DialRetries int
}

// Client wraps the Redis connection.
type Client struct {
	RDB *goredis.Client
}

// NewClient connects to Redis, pinging until the server answers or retries run out.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	retries := cfg.DialRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for i := range retries {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = rdb.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			log.Info(ctx, "connected to redis", "addr", cfg.Addr)
			return &Client{RDB: rdb}, nil
		}

		log.Warn(ctx, "waiting for redis", "attempt", i+1, "of", retries, "error", lastErr.Error())
		if i == retries-1 {
			break
		}

		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after %d attempts: %w", retries, lastErr)
}

// Ping checks that the server still answers.
func (c *Client) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

// Close tears down the Redis connection.
func (c *Client) Close() error { return c.RDB.Close() }
