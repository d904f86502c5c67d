package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgreDB struct {
	Pool     *pgxpool.Pool
	DBConfig *pgxpool.Config
}

// Config describes the connection and pool settings.
type Config interface {
	GetDSN() string
	PoolSettings() PoolSettings
}

type PoolSettings struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func New(ctx context.Context, config Config) (*PostgreDB, error) {
	dbConfig, err := pgxpool.ParseConfig(config.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}

	ps := config.PoolSettings()
	if ps.MaxConns > 0 {
		dbConfig.MaxConns = ps.MaxConns
	}
	if ps.MinConns > 0 {
		dbConfig.MinConns = ps.MinConns
	}
	if ps.MaxConnLifetime > 0 {
		dbConfig.MaxConnLifetime = ps.MaxConnLifetime
	}
	if ps.MaxConnIdleTime > 0 {
		dbConfig.MaxConnIdleTime = ps.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgreDB{
		Pool:     pool,
		DBConfig: dbConfig,
	}, nil
}

func (db *PostgreDB) Close() {
	if db != nil && db.Pool != nil {
		db.Pool.Close()
	}
}
