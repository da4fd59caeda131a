package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists purchase lots in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const lotColumns = `lot_id, po_id, sku, lot_number, quantity_purchased, quantity_remaining,
unit_price_original, purchase_date, created_at`

// TotalStockBySKU sums the remaining quantity across all lots for a SKU.
func (r *Repository) TotalStockBySKU(ctx context.Context, sku string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(quantity_remaining), 0)
FROM purchase_lots
WHERE sku = $1`, sku).Scan(&total)
	return total, err
}

// AvailableLotsBySKU lists open lots in FIFO order without locking; used for
// read-only views outside the invoice transaction.
func (r *Repository) AvailableLotsBySKU(ctx context.Context, sku string) ([]PurchaseLot, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lotColumns+`
FROM purchase_lots
WHERE sku = $1 AND quantity_remaining > 0
ORDER BY purchase_date ASC, lot_id ASC`, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

// TxLots adapts a pgx transaction into the allocator's LotTx port. The SELECT
// takes row locks so two concurrent allocations against the same SKU cannot
// both read the same quantity_remaining.
type TxLots struct {
	tx pgx.Tx
}

// NewTxLots wraps tx.
func NewTxLots(tx pgx.Tx) *TxLots {
	return &TxLots{tx: tx}
}

// AvailableLotsBySKU lists open lots in FIFO order, locking each row.
func (l *TxLots) AvailableLotsBySKU(ctx context.Context, sku string) ([]PurchaseLot, error) {
	rows, err := l.tx.Query(ctx, `SELECT `+lotColumns+`
FROM purchase_lots
WHERE sku = $1 AND quantity_remaining > 0
ORDER BY purchase_date ASC, lot_id ASC
FOR UPDATE`, sku)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLots(rows)
}

// UpdateRemaining persists a lot's new remaining quantity.
func (l *TxLots) UpdateRemaining(ctx context.Context, lotID int64, newQty int) error {
	_, err := l.tx.Exec(ctx, `UPDATE purchase_lots
SET quantity_remaining = $2
WHERE lot_id = $1`, lotID, newQty)
	return err
}

// TotalStockBySKU sums remaining stock within the transaction.
func (l *TxLots) TotalStockBySKU(ctx context.Context, sku string) (int, error) {
	var total int
	err := l.tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity_remaining), 0)
FROM purchase_lots
WHERE sku = $1`, sku).Scan(&total)
	return total, err
}

func collectLots(rows pgx.Rows) ([]PurchaseLot, error) {
	lots := []PurchaseLot{}
	for rows.Next() {
		var lot PurchaseLot
		if err := rows.Scan(&lot.LotID, &lot.POID, &lot.SKU, &lot.LotNumber, &lot.QuantityPurchased,
			&lot.QuantityRemaining, &lot.UnitPriceOriginal, &lot.PurchaseDate, &lot.CreatedAt); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}
