package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

type memoryLots struct {
	lots []PurchaseLot
}

func (m *memoryLots) AvailableLotsBySKU(ctx context.Context, sku string) ([]PurchaseLot, error) {
	result := []PurchaseLot{}
	for _, lot := range m.lots {
		if lot.SKU == sku && lot.QuantityRemaining > 0 {
			result = append(result, lot)
		}
	}
	// callers get lots pre-sorted by the store; the fixture keeps them in
	// (purchase_date, lot_id) order already
	return result, nil
}

func (m *memoryLots) UpdateRemaining(ctx context.Context, lotID int64, newQty int) error {
	for i := range m.lots {
		if m.lots[i].LotID == lotID {
			m.lots[i].QuantityRemaining = newQty
			return nil
		}
	}
	return shared.ErrNotFound
}

func day(offset int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestAllocateFIFO(t *testing.T) {
	store := &memoryLots{lots: []PurchaseLot{
		{LotID: 1, SKU: "HW-100", QuantityPurchased: 5, QuantityRemaining: 5, PurchaseDate: day(0)},
		{LotID: 2, SKU: "HW-100", QuantityPurchased: 5, QuantityRemaining: 5, PurchaseDate: day(10)},
	}}

	allocs, err := NewAllocator().Allocate(context.Background(), store, "HW-100", 7)
	require.NoError(t, err)
	require.Equal(t, []Allocation{{LotID: 1, Quantity: 5}, {LotID: 2, Quantity: 2}}, allocs)
	require.Equal(t, 0, store.lots[0].QuantityRemaining)
	require.Equal(t, 3, store.lots[1].QuantityRemaining)
}

func TestAllocateSameDateTieBreak(t *testing.T) {
	store := &memoryLots{lots: []PurchaseLot{
		{LotID: 11, SKU: "HW-200", QuantityPurchased: 3, QuantityRemaining: 3, PurchaseDate: day(0)},
		{LotID: 12, SKU: "HW-200", QuantityPurchased: 3, QuantityRemaining: 3, PurchaseDate: day(0)},
	}}

	allocs, err := NewAllocator().Allocate(context.Background(), store, "HW-200", 4)
	require.NoError(t, err)
	require.Equal(t, []Allocation{{LotID: 11, Quantity: 3}, {LotID: 12, Quantity: 1}}, allocs)
}

func TestAllocateConservation(t *testing.T) {
	store := &memoryLots{lots: []PurchaseLot{
		{LotID: 1, SKU: "HW-300", QuantityPurchased: 4, QuantityRemaining: 4, PurchaseDate: day(0)},
		{LotID: 2, SKU: "HW-300", QuantityPurchased: 6, QuantityRemaining: 6, PurchaseDate: day(1)},
		{LotID: 3, SKU: "HW-300", QuantityPurchased: 2, QuantityRemaining: 2, PurchaseDate: day(2)},
	}}
	allocator := NewAllocator()

	deducted := 0
	for _, qty := range []int{3, 5, 1, 2} {
		allocs, err := allocator.Allocate(context.Background(), store, "HW-300", qty)
		require.NoError(t, err)
		for _, a := range allocs {
			deducted += a.Quantity
		}
	}

	consumed := 0
	for _, lot := range store.lots {
		consumed += lot.QuantityPurchased - lot.QuantityRemaining
	}
	require.Equal(t, deducted, consumed)
	require.Equal(t, 11, deducted)
}

func TestAllocateExhaustedLotsConflict(t *testing.T) {
	store := &memoryLots{lots: []PurchaseLot{
		{LotID: 1, SKU: "HW-400", QuantityPurchased: 2, QuantityRemaining: 2, PurchaseDate: day(0)},
	}}

	_, err := NewAllocator().Allocate(context.Background(), store, "HW-400", 5)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestAllocateRejectsNonPositiveQuantity(t *testing.T) {
	store := &memoryLots{}
	_, err := NewAllocator().Allocate(context.Background(), store, "HW-500", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}
