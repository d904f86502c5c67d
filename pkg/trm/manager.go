package trm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
)

// ErrRetriesExhausted is returned when a transaction kept failing with
// serialization failures or deadlocks until the attempt budget ran out.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Manager implements a transaction manager using pgx.
// The transaction travels in the context so repositories can join it with TxorDB.
type Manager struct {
	db          *pgxpool.Pool
	maxAttempts int
	onRetry     func(err error, wait time.Duration)
	classify    func(err error) error
}

type Option func(*Manager)

// WithMaxAttempts sets how many times a retryable transaction is run in total.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithRetryNotify registers a callback invoked before every retry.
func WithRetryNotify(fn func(err error, wait time.Duration)) Option {
	return func(m *Manager) {
		m.onRetry = fn
	}
}

// WithErrorClassifier maps failures to begin or commit a transaction, typically
// onto the caller's "store unavailable" error. Retryable errors must be kept in
// the returned chain or they will no longer be retried.
func WithErrorClassifier(fn func(err error) error) Option {
	return func(m *Manager) {
		if fn != nil {
			m.classify = fn
		}
	}
}

// New returns a new Transaction Manager
func New(db *pgxpool.Pool, opts ...Option) *Manager {
	m := &Manager{db: db, maxAttempts: 3, classify: func(err error) error { return err }}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Unique key for TX
type ctxKeyTx struct{}

var TxKey = ctxKeyTx{}

// Do executes fn within a transaction.
// When ctx already carries a transaction, fn joins it and no retry happens at this level.
// Otherwise a new transaction is started; it is committed when fn returns nil and rolled
// back otherwise. Serialization failures and deadlocks re-run the whole fn with
// exponential backoff, up to the configured number of attempts.
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := ctx.Value(TxKey); tx != nil {
		if _, ok := tx.(pgx.Tx); !ok {
			return fmt.Errorf("invalid transaction type in context")
		}
		return fn(ctx)
	}

	operation := func() error {
		err := m.run(ctx, fn)
		if err == nil {
			return nil
		}
		if postgres.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(m.maxAttempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		if m.onRetry != nil {
			m.onRetry(err, wait)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err != nil && postgres.IsRetryable(err) {
		return fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}
	return err
}

// run executes a single attempt of fn inside a fresh transaction.
func (m *Manager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return m.classify(fmt.Errorf("failed to start new transaction: %w", err))
	}

	txCtx := context.WithValue(ctx, TxKey, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("failed to rollback tx: %v (original error: %w)", rbErr, err)
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = m.classify(fmt.Errorf("failed to commit tx: %w", commitErr))
			}
		}
	}()

	err = fn(txCtx)
	return err
}
