package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Repository persists heater models and list prices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const modelColumns = `sku, model_name, manufacturer, capacity_kw, description, created_at`

// GetBySKU fetches a single heater model.
func (r *Repository) GetBySKU(ctx context.Context, sku string) (HeaterModel, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+modelColumns+`
FROM heater_models
WHERE sku = $1`, sku)
	m, err := scanModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return HeaterModel{}, fmt.Errorf("%w: heater model %q", shared.ErrNotFound, sku)
		}
		return HeaterModel{}, err
	}
	return m, nil
}

// FindAll lists models ordered by model name.
func (r *Repository) FindAll(ctx context.Context, limit int) ([]HeaterModel, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+modelColumns+`
FROM heater_models
ORDER BY model_name
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectModels(rows)
}

// Search matches the term against model name, manufacturer and SKU.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]HeaterModel, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+modelColumns+`
FROM heater_models
WHERE model_name ILIKE $1 OR manufacturer ILIKE $1 OR sku ILIKE $1
ORDER BY model_name
LIMIT $2`, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectModels(rows)
}

// ListInStock returns models that have at least one lot with remaining stock.
func (r *Repository) ListInStock(ctx context.Context) ([]HeaterModel, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT h.sku, h.model_name, h.manufacturer, h.capacity_kw, h.description, h.created_at
FROM heater_models h
JOIN purchase_lots pl ON pl.sku = h.sku
WHERE pl.quantity_remaining > 0
ORDER BY h.model_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectModels(rows)
}

// CurrentListPrice fetches the current list price for a SKU.
func (r *Repository) CurrentListPrice(ctx context.Context, sku string) (ListPrice, error) {
	var p ListPrice
	err := r.pool.QueryRow(ctx, `SELECT price_id, sku, list_price_uah, effective_date, is_current
FROM list_prices
WHERE sku = $1 AND is_current = true`, sku).
		Scan(&p.PriceID, &p.SKU, &p.ListPrice, &p.EffectiveDate, &p.IsCurrent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ListPrice{}, fmt.Errorf("%w: list price for %q", shared.ErrNotFound, sku)
		}
		return ListPrice{}, err
	}
	return p, nil
}

func scanModel(row pgx.Row) (HeaterModel, error) {
	var m HeaterModel
	err := row.Scan(&m.SKU, &m.ModelName, &m.Manufacturer, &m.CapacityKW, &m.Description, &m.CreatedAt)
	return m, err
}

func collectModels(rows pgx.Rows) ([]HeaterModel, error) {
	result := []HeaterModel{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
