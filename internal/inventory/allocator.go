package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// LotTx exposes the lot operations the allocator needs inside the caller's
// transaction. Lot rows returned by AvailableLotsBySKU must be locked for the
// duration of the transaction so concurrent allocations serialize.
type LotTx interface {
	AvailableLotsBySKU(ctx context.Context, sku string) ([]PurchaseLot, error)
	UpdateRemaining(ctx context.Context, lotID int64, newQty int) error
}

// ErrInvalidQuantity indicates a non-positive deduction request.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// Allocator deducts stock from purchase lots in FIFO order.
type Allocator struct{}

// NewAllocator builds Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate walks the SKU's open lots oldest-first and apportions the requested
// quantity across them, persisting each lot's new remaining quantity before
// moving on. The caller must run it inside the same transaction as the rest of
// the invoice so a later failure rolls the lot updates back.
//
// Exhausting every lot while the counter is still positive means the stock
// pre-check was stale or bypassed; that is reported as a conflict, never as a
// silent partial deduction.
func (a *Allocator) Allocate(ctx context.Context, lots LotTx, sku string, quantity int) ([]Allocation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	available, err := lots.AvailableLotsBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("inventory: fetch lots for %q: %w", sku, err)
	}

	remaining := quantity
	allocations := make([]Allocation, 0, len(available))

	for _, lot := range available {
		if remaining <= 0 {
			break
		}
		deduct := remaining
		if lot.QuantityRemaining < deduct {
			deduct = lot.QuantityRemaining
		}
		if err := lots.UpdateRemaining(ctx, lot.LotID, lot.QuantityRemaining-deduct); err != nil {
			return nil, fmt.Errorf("inventory: update lot %d: %w", lot.LotID, err)
		}
		allocations = append(allocations, Allocation{LotID: lot.LotID, Quantity: deduct})
		remaining -= deduct
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: failed to deduct full quantity for %q, remaining %d", shared.ErrConflict, sku, remaining)
	}

	return allocations, nil
}
