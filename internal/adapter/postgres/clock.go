package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Clock reads the database server time so cutoffs agree with now() stamps written by the store.
type Clock struct {
	db *pgxpool.Pool
}

func NewClock(db *pgxpool.Pool) *Clock {
	return &Clock{db: db}
}

func (c *Clock) Now(ctx context.Context) (time.Time, error) {
	const op = "Clock.Now"

	var now time.Time
	if err := TxorDB(ctx, c.db).QueryRow(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, storeErr(op, err)
	}
	return now.UTC(), nil
}
