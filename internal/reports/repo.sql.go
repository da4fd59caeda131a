package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads the raw report inputs from PostgreSQL. The valuation
// arithmetic itself lives in the service so it can run on exact decimals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LotRows lists every open lot with its vendor currency, grouped-friendly:
// ordered by SKU, then FIFO within the SKU.
func (r *Repository) LotRows(ctx context.Context) ([]LotRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT pl.sku, hm.model_name, hm.manufacturer,
	pl.quantity_remaining, pl.unit_price_original, v.currency_code
FROM purchase_lots pl
JOIN heater_models hm ON hm.sku = pl.sku
JOIN purchase_orders po ON po.po_id = pl.po_id
JOIN vendors v ON v.vendor_id = po.vendor_id
WHERE pl.quantity_remaining > 0
ORDER BY pl.sku ASC, pl.purchase_date ASC, pl.lot_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := []LotRow{}
	for rows.Next() {
		var lot LotRow
		if err := rows.Scan(&lot.SKU, &lot.ModelName, &lot.Manufacturer,
			&lot.QuantityRemaining, &lot.UnitPriceOriginal, &lot.CurrencyCode); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// CurrentListPrices maps SKU to the current list price.
func (r *Repository) CurrentListPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT sku, list_price_uah
FROM list_prices
WHERE is_current = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := map[string]decimal.Decimal{}
	for rows.Next() {
		var sku string
		var price decimal.Decimal
		if err := rows.Scan(&sku, &price); err != nil {
			return nil, err
		}
		prices[sku] = price
	}
	return prices, rows.Err()
}

// SalesRows lists the period's sales, one row per (SKU, invoice date), each
// paired with the earliest purchase lot's original-currency cost basis.
func (r *Repository) SalesRows(ctx context.Context, start, end time.Time) ([]SaleRow, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT ON (il.sku, i.invoice_date)
	il.sku, hm.model_name, hm.manufacturer, i.invoice_date,
	il.quantity_sold, il.unit_price_uah, pl.unit_price_original, v.currency_code
FROM invoice_lines il
JOIN invoices i ON i.invoice_id = il.invoice_id
JOIN heater_models hm ON hm.sku = il.sku
LEFT JOIN purchase_lots pl ON pl.sku = il.sku
LEFT JOIN purchase_orders po ON po.po_id = pl.po_id
LEFT JOIN vendors v ON v.vendor_id = po.vendor_id
WHERE i.invoice_date BETWEEN $1 AND $2
ORDER BY il.sku ASC, i.invoice_date ASC, pl.purchase_date ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []SaleRow{}
	for rows.Next() {
		var sale SaleRow
		if err := rows.Scan(&sale.SKU, &sale.ModelName, &sale.Manufacturer, &sale.InvoiceDate,
			&sale.QuantitySold, &sale.UnitPriceUAH, &sale.UnitPriceOriginal, &sale.CurrencyCode); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}
