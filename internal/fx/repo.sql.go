package fx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Repository persists exchange rates in PostgreSQL.
type Repository struct {
	pool  *pgxpool.Pool
	local string
}

// NewRepository constructs Repository. local is excluded from the available
// currency list.
func NewRepository(pool *pgxpool.Pool, local string) *Repository {
	return &Repository{pool: pool, local: local}
}

// Rate returns the most recent rate with rate_date on or before date. There is
// no forward-looking fallback.
func (r *Repository) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT exchange_rate
FROM exchange_rates
WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
ORDER BY rate_date DESC
LIMIT 1`, from, to, date).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, fmt.Errorf("%w: no %s/%s rate on or before %s",
				shared.ErrNotFound, from, to, date.Format("2006-01-02"))
		}
		return decimal.Decimal{}, err
	}
	return rate, nil
}

// Exists reports whether a rate row exists for the exact triple.
func (r *Repository) Exists(ctx context.Context, from, to string, date time.Time) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM exchange_rates
WHERE from_currency = $1 AND to_currency = $2 AND rate_date = $3
)`, from, to, date).Scan(&found)
	return found, err
}

// InsertMany inserts rates, skipping triples that already exist, and returns
// the number of rows actually inserted. Safe to re-run: a concurrent insert of
// the same triple is absorbed by the conflict clause.
func (r *Repository) InsertMany(ctx context.Context, rates []ExchangeRate) (int, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	inserted := 0
	for _, rate := range rates {
		tag, err := tx.Exec(ctx, `INSERT INTO exchange_rates (from_currency, to_currency, rate_date, exchange_rate)
VALUES ($1, $2, $3, $4)
ON CONFLICT (from_currency, to_currency, rate_date) DO NOTHING`,
			rate.FromCurrency, rate.ToCurrency, rate.RateDate, rate.Rate)
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

// AvailableCurrencies lists known currency codes excluding the local currency.
func (r *Repository) AvailableCurrencies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT currency_code
FROM currencies
WHERE currency_code != $1
ORDER BY currency_code`, r.local)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	currencies := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		currencies = append(currencies, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return currencies, nil
}
