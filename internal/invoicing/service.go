package invoicing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hotwind-erp/hotwind/internal/catalog"
	"github.com/hotwind-erp/hotwind/internal/customers"
	"github.com/hotwind-erp/hotwind/internal/inventory"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Store is the invoice persistence surface.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error
	GetByID(ctx context.Context, id int64) (Invoice, error)
	Recent(ctx context.Context, limit int) ([]InvoiceSummary, error)
}

// TxStore is the slice of Store bound to one transaction. Lots returns lot
// access sharing that transaction so allocation failures roll everything back.
type TxStore interface {
	InsertInvoice(ctx context.Context, inv Invoice) (int64, error)
	InsertLine(ctx context.Context, line InvoiceLine) error
	Lots() inventory.LotTx
}

// CustomerDirectory resolves customers for validation.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id int64) (customers.Customer, error)
}

// ModelDirectory resolves heater models for validation.
type ModelDirectory interface {
	GetBySKU(ctx context.Context, sku string) (catalog.HeaterModel, error)
}

// StockChecker reports total remaining stock per SKU.
type StockChecker interface {
	TotalStockBySKU(ctx context.Context, sku string) (int, error)
}

// Service creates and reads invoices. Creation validates the request, computes
// the total with exact decimal arithmetic, then persists the header, the lines
// and the FIFO lot deductions in a single transaction.
type Service struct {
	store     Store
	customers CustomerDirectory
	models    ModelDirectory
	stock     StockChecker
	allocator *inventory.Allocator
}

// NewService builds Service.
func NewService(store Store, customers CustomerDirectory, models ModelDirectory, stock StockChecker) *Service {
	return &Service{
		store:     store,
		customers: customers,
		models:    models,
		stock:     stock,
		allocator: inventory.NewAllocator(),
	}
}

// CreateInvoice runs the full pipeline: validate, total, persist, allocate,
// refetch. Every validation happens before any mutation; a failure after the
// header exists rolls back the header, the lines and all lot updates.
func (s *Service) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (Invoice, error) {
	if len(params.Lines) == 0 {
		return Invoice{}, fmt.Errorf("%w: invoice requires at least one line", shared.ErrInvalidInput)
	}

	if _, err := s.customers.GetByID(ctx, params.CustomerID); err != nil {
		return Invoice{}, fmt.Errorf("verify customer: %w", err)
	}

	for _, line := range params.Lines {
		if line.Quantity <= 0 {
			return Invoice{}, fmt.Errorf("%w: quantity for %q must be positive", shared.ErrInvalidInput, line.SKU)
		}
		if _, err := s.models.GetBySKU(ctx, line.SKU); err != nil {
			return Invoice{}, fmt.Errorf("verify model: %w", err)
		}
		available, err := s.stock.TotalStockBySKU(ctx, line.SKU)
		if err != nil {
			return Invoice{}, fmt.Errorf("check stock for %q: %w", line.SKU, err)
		}
		if available < line.Quantity {
			return Invoice{}, fmt.Errorf("%w: sku %q has %d units available, %d requested",
				shared.ErrInsufficientStock, line.SKU, available, line.Quantity)
		}
	}

	total := decimal.Zero
	for _, line := range params.Lines {
		total = total.Add(line.UnitPriceUAH.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	var invoiceID int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, err := tx.InsertInvoice(ctx, Invoice{
			CustomerID:  params.CustomerID,
			InvoiceDate: params.InvoiceDate,
			TotalAmount: total,
			Notes:       params.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		invoiceID = id

		for _, line := range params.Lines {
			err := tx.InsertLine(ctx, InvoiceLine{
				InvoiceID:    invoiceID,
				SKU:          line.SKU,
				QuantitySold: line.Quantity,
				UnitPriceUAH: line.UnitPriceUAH,
			})
			if err != nil {
				return fmt.Errorf("insert line for %q: %w", line.SKU, err)
			}
		}

		lots := tx.Lots()
		for _, line := range params.Lines {
			if _, err := s.allocator.Allocate(ctx, lots, line.SKU, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}

	return s.store.GetByID(ctx, invoiceID)
}

// GetInvoice returns one materialized invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return s.store.GetByID(ctx, id)
}

// Recent lists the newest invoices.
func (s *Service) Recent(ctx context.Context, limit int) ([]InvoiceSummary, error) {
	return s.store.Recent(ctx, limit)
}
