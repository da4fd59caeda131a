package invoicing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hotwind-erp/hotwind/internal/inventory"
	"github.com/hotwind-erp/hotwind/internal/platform/db"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a repeatable-read transaction. The TxRepository handed
// to fn shares the transaction with the lot updates, so a failure anywhere
// rolls back the header, the lines, and every lot deduction together.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &TxRepository{tx: tx})
	})
}

// GetByID returns the materialized invoice with customer and model names.
func (r *Repository) GetByID(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	err := r.pool.QueryRow(ctx, `SELECT i.invoice_id, i.customer_id, c.company_name, i.invoice_date, i.total_amount, i.notes
FROM invoices i
JOIN customers c ON c.customer_id = i.customer_id
WHERE i.invoice_id = $1`, id).
		Scan(&inv.InvoiceID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceDate, &inv.TotalAmount, &inv.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
		return Invoice{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT l.invoice_line_id, l.invoice_id, l.sku, m.model_name, l.quantity_sold, l.unit_price_uah
FROM invoice_lines l
JOIN heater_models m ON m.sku = l.sku
WHERE l.invoice_id = $1
ORDER BY l.invoice_line_id ASC`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()

	inv.Lines = []InvoiceLine{}
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.InvoiceLineID, &line.InvoiceID, &line.SKU, &line.ModelName,
			&line.QuantitySold, &line.UnitPriceUAH); err != nil {
			return Invoice{}, err
		}
		line.LineTotal = line.UnitPriceUAH.Mul(decimal.NewFromInt(int64(line.QuantitySold)))
		inv.Lines = append(inv.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Recent lists the newest invoices with their line counts.
func (r *Repository) Recent(ctx context.Context, limit int) ([]InvoiceSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT i.invoice_id, i.customer_id, c.company_name, i.invoice_date, i.total_amount,
	COUNT(l.invoice_line_id) AS line_count
FROM invoices i
JOIN customers c ON c.customer_id = i.customer_id
LEFT JOIN invoice_lines l ON l.invoice_id = i.invoice_id
GROUP BY i.invoice_id, i.customer_id, c.company_name, i.invoice_date, i.total_amount
ORDER BY i.invoice_date DESC, i.invoice_id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []InvoiceSummary{}
	for rows.Next() {
		var s InvoiceSummary
		if err := rows.Scan(&s.InvoiceID, &s.CustomerID, &s.CustomerName, &s.InvoiceDate,
			&s.TotalAmount, &s.LineCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// TxRepository is the transactional slice of the invoice store.
type TxRepository struct {
	tx pgx.Tx
}

// InsertInvoice writes the header and returns the generated id.
func (t *TxRepository) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO invoices (customer_id, invoice_date, total_amount, notes)
VALUES ($1, $2, $3, $4)
RETURNING invoice_id`, inv.CustomerID, inv.InvoiceDate, inv.TotalAmount, inv.Notes).Scan(&id)
	return id, err
}

// InsertLine writes one invoice line.
func (t *TxRepository) InsertLine(ctx context.Context, line InvoiceLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO invoice_lines (invoice_id, sku, quantity_sold, unit_price_uah)
VALUES ($1, $2, $3, $4)`, line.InvoiceID, line.SKU, line.QuantitySold, line.UnitPriceUAH)
	return err
}

// Lots exposes lot allocation bound to this transaction.
func (t *TxRepository) Lots() inventory.LotTx {
	return inventory.NewTxLots(t.tx)
}
