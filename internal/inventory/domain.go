package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLot is a discrete batch of stock from one purchase order. Lots are
// the unit of FIFO allocation; quantity_remaining only ever decreases.
type PurchaseLot struct {
	LotID             int64           `json:"lot_id"`
	POID              int64           `json:"po_id"`
	SKU               string          `json:"sku"`
	LotNumber         string          `json:"lot_number"`
	QuantityPurchased int             `json:"quantity_purchased"`
	QuantityRemaining int             `json:"quantity_remaining"`
	UnitPriceOriginal decimal.Decimal `json:"unit_price_original"`
	PurchaseDate      time.Time       `json:"purchase_date"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Allocation records how much of a deduction one lot absorbed.
type Allocation struct {
	LotID    int64 `json:"lot_id"`
	Quantity int   `json:"quantity"`
}
