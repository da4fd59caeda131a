package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Repository persists customers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `customer_id, company_name, contact_person, email, phone, created_at`

// GetByID fetches a single customer.
func (r *Repository) GetByID(ctx context.Context, id int64) (Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+`
FROM customers
WHERE customer_id = $1`, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
		}
		return Customer{}, err
	}
	return c, nil
}

// FindAll lists customers ordered by company name.
func (r *Repository) FindAll(ctx context.Context, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+`
FROM customers
ORDER BY company_name
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

// Search matches the term against company and contact names.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+`
FROM customers
WHERE company_name ILIKE $1 OR contact_person ILIKE $1
ORDER BY company_name
LIMIT $2`, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCustomers(rows)
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyName, &c.ContactPerson, &c.Email, &c.Phone, &c.CreatedAt)
	return c, err
}

func collectCustomers(rows pgx.Rows) ([]Customer, error) {
	result := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
