package invoicing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a materialized sales invoice with its lines and resolved names.
// Invoices are created atomically with their lines and are immutable after.
type Invoice struct {
	InvoiceID    int64           `json:"invoice_id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	InvoiceDate  time.Time       `json:"invoice_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        *string         `json:"notes,omitempty"`
	Lines        []InvoiceLine   `json:"lines"`
}

// InvoiceLine is one sold position. LineTotal is quantity times unit price.
type InvoiceLine struct {
	InvoiceLineID int64           `json:"invoice_line_id"`
	InvoiceID     int64           `json:"invoice_id"`
	SKU           string          `json:"sku"`
	ModelName     string          `json:"model_name"`
	QuantitySold  int             `json:"quantity_sold"`
	UnitPriceUAH  decimal.Decimal `json:"unit_price_uah"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// InvoiceSummary is the list-view projection used by Recent.
type InvoiceSummary struct {
	InvoiceID    int64           `json:"invoice_id"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	InvoiceDate  time.Time       `json:"invoice_date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	LineCount    int             `json:"line_count"`
}

// CreateInvoiceParams is the service-level input for invoice creation.
type CreateInvoiceParams struct {
	CustomerID  int64
	InvoiceDate time.Time
	Notes       *string
	Lines       []CreateInvoiceLineParams
}

// CreateInvoiceLineParams is one requested position.
type CreateInvoiceLineParams struct {
	SKU          string
	Quantity     int
	UnitPriceUAH decimal.Decimal
}
