package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// HeaterModel identifies a sellable product by SKU.
type HeaterModel struct {
	SKU          string           `json:"sku"`
	ModelName    string           `json:"model_name"`
	Manufacturer string           `json:"manufacturer"`
	CapacityKW   *decimal.Decimal `json:"capacity_kw,omitempty"`
	Description  *string          `json:"description,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ModelDetail pairs a model with its current list price. CurrentPrice is nil
// for models that have never been priced.
type ModelDetail struct {
	HeaterModel
	CurrentPrice *ListPrice `json:"current_price,omitempty"`
}

// ListPrice is the current local-currency selling price for a SKU.
// At most one row per SKU is current.
type ListPrice struct {
	PriceID       int64           `json:"price_id"`
	SKU           string          `json:"sku"`
	ListPrice     decimal.Decimal `json:"list_price_uah"`
	EffectiveDate time.Time       `json:"effective_date"`
	IsCurrent     bool            `json:"is_current"`
}
