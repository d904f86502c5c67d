package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/taxi-dispatch/internal/domain/types"
	pg "github.com/Temutjin2k/taxi-dispatch/pkg/postgres"
	"github.com/Temutjin2k/taxi-dispatch/pkg/trm"
)

type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// TxorDB returns the transaction carried by ctx, or the pool when there is none.
func TxorDB(ctx context.Context, db *pgxpool.Pool) Querier {
	tx, ok := ctx.Value(trm.TxKey).(pgx.Tx)
	if !ok {
		return db
	}
	return tx
}

// storeErr marks infrastructure failures. Serialization failures and deadlocks keep
// their pg error in the chain so the transaction manager can retry them.
func storeErr(op string, err error) error {
	if pg.IsRetryable(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreUnavailable, err)
}

// TxError classifies begin and commit failures of the transaction manager the same
// way storeErr classifies statement failures.
func TxError(err error) error {
	if pg.IsRetryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", types.ErrStoreUnavailable, err)
}
