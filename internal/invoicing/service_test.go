package invoicing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hotwind-erp/hotwind/internal/catalog"
	"github.com/hotwind-erp/hotwind/internal/customers"
	"github.com/hotwind-erp/hotwind/internal/inventory"
	"github.com/hotwind-erp/hotwind/internal/shared"
)

type memoryStore struct {
	lots       []inventory.PurchaseLot
	invoices   map[int64]Invoice
	customers  map[int64]customers.Customer
	models     map[string]catalog.HeaterModel
	nextID     int64
	nextLineID int64

	failLineInsert bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		invoices:  make(map[int64]Invoice),
		customers: make(map[int64]customers.Customer),
		models:    make(map[string]catalog.HeaterModel),
	}
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	lotsSnapshot := make([]inventory.PurchaseLot, len(m.lots))
	copy(lotsSnapshot, m.lots)
	invoicesSnapshot := make(map[int64]Invoice, len(m.invoices))
	for k, v := range m.invoices {
		invoicesSnapshot[k] = v
	}
	id, lineID := m.nextID, m.nextLineID

	if err := fn(ctx, memoryTxStore{store: m}); err != nil {
		m.lots = lotsSnapshot
		m.invoices = invoicesSnapshot
		m.nextID, m.nextLineID = id, lineID
		return err
	}
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	inv.CustomerName = m.customers[inv.CustomerID].CompanyName
	for i := range inv.Lines {
		inv.Lines[i].ModelName = m.models[inv.Lines[i].SKU].ModelName
		inv.Lines[i].LineTotal = inv.Lines[i].UnitPriceUAH.Mul(decimal.NewFromInt(int64(inv.Lines[i].QuantitySold)))
	}
	return inv, nil
}

func (m *memoryStore) Recent(ctx context.Context, limit int) ([]InvoiceSummary, error) {
	ids := make([]int64, 0, len(m.invoices))
	for id := range m.invoices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	summaries := make([]InvoiceSummary, 0, len(ids))
	for _, id := range ids {
		inv := m.invoices[id]
		summaries = append(summaries, InvoiceSummary{
			InvoiceID:    inv.InvoiceID,
			CustomerID:   inv.CustomerID,
			CustomerName: m.customers[inv.CustomerID].CompanyName,
			InvoiceDate:  inv.InvoiceDate,
			TotalAmount:  inv.TotalAmount,
			LineCount:    len(inv.Lines),
		})
	}
	return summaries, nil
}

func (m *memoryStore) GetCustomerByID(ctx context.Context, id int64) (customers.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return customers.Customer{}, fmt.Errorf("%w: customer %d", shared.ErrNotFound, id)
	}
	return c, nil
}

func (m *memoryStore) GetModelBySKU(ctx context.Context, sku string) (catalog.HeaterModel, error) {
	mdl, ok := m.models[sku]
	if !ok {
		return catalog.HeaterModel{}, fmt.Errorf("%w: model %q", shared.ErrNotFound, sku)
	}
	return mdl, nil
}

func (m *memoryStore) TotalStockBySKU(ctx context.Context, sku string) (int, error) {
	total := 0
	for _, lot := range m.lots {
		if lot.SKU == sku {
			total += lot.QuantityRemaining
		}
	}
	return total, nil
}

type memoryTxStore struct {
	store *memoryStore
}

func (t memoryTxStore) InsertInvoice(ctx context.Context, inv Invoice) (int64, error) {
	t.store.nextID++
	inv.InvoiceID = t.store.nextID
	inv.Lines = []InvoiceLine{}
	t.store.invoices[inv.InvoiceID] = inv
	return inv.InvoiceID, nil
}

func (t memoryTxStore) InsertLine(ctx context.Context, line InvoiceLine) error {
	if t.store.failLineInsert {
		return errors.New("simulated storage failure")
	}
	t.store.nextLineID++
	line.InvoiceLineID = t.store.nextLineID
	inv := t.store.invoices[line.InvoiceID]
	inv.Lines = append(inv.Lines, line)
	t.store.invoices[line.InvoiceID] = inv
	return nil
}

func (t memoryTxStore) Lots() inventory.LotTx {
	return memoryLotTx{store: t.store}
}

type memoryLotTx struct {
	store *memoryStore
}

func (l memoryLotTx) AvailableLotsBySKU(ctx context.Context, sku string) ([]inventory.PurchaseLot, error) {
	var open []inventory.PurchaseLot
	for _, lot := range l.store.lots {
		if lot.SKU == sku && lot.QuantityRemaining > 0 {
			open = append(open, lot)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if !open[i].PurchaseDate.Equal(open[j].PurchaseDate) {
			return open[i].PurchaseDate.Before(open[j].PurchaseDate)
		}
		return open[i].LotID < open[j].LotID
	})
	return open, nil
}

func (l memoryLotTx) UpdateRemaining(ctx context.Context, lotID int64, newQty int) error {
	for i := range l.store.lots {
		if l.store.lots[i].LotID == lotID {
			l.store.lots[i].QuantityRemaining = newQty
			return nil
		}
	}
	return fmt.Errorf("lot %d not found", lotID)
}

// inflatedStock reports more stock than the lots actually hold, standing in
// for a pre-check gone stale between validation and allocation.
type inflatedStock struct{}

func (inflatedStock) TotalStockBySKU(ctx context.Context, sku string) (int, error) {
	return 1_000_000, nil
}

type customerDir struct{ store *memoryStore }

func (d customerDir) GetByID(ctx context.Context, id int64) (customers.Customer, error) {
	return d.store.GetCustomerByID(ctx, id)
}

type modelDir struct{ store *memoryStore }

func (d modelDir) GetBySKU(ctx context.Context, sku string) (catalog.HeaterModel, error) {
	return d.store.GetModelBySKU(ctx, sku)
}

func seededStore() *memoryStore {
	store := newMemoryStore()
	store.customers[1] = customers.Customer{ID: 1, CompanyName: "Teplobud LLC"}
	store.models["HW-100"] = catalog.HeaterModel{SKU: "HW-100", ModelName: "HotWind 100"}
	store.models["HW-200"] = catalog.HeaterModel{SKU: "HW-200", ModelName: "HotWind 200"}
	store.lots = []inventory.PurchaseLot{
		{LotID: 1, SKU: "HW-100", QuantityPurchased: 5, QuantityRemaining: 5,
			PurchaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{LotID: 2, SKU: "HW-100", QuantityPurchased: 5, QuantityRemaining: 5,
			PurchaseDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{LotID: 3, SKU: "HW-200", QuantityPurchased: 4, QuantityRemaining: 4,
			PurchaseDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	return store
}

func newTestService(store *memoryStore) *Service {
	return NewService(store, customerDir{store}, modelDir{store}, store)
}

func TestCreateInvoiceComputesExactTotal(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 2, UnitPriceUAH: decimal.RequireFromString("100.50")},
			{SKU: "HW-200", Quantity: 3, UnitPriceUAH: decimal.RequireFromString("200.00")},
		},
	})
	require.NoError(t, err)

	require.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("801.00")),
		"total %s", inv.TotalAmount)
	require.Equal(t, "Teplobud LLC", inv.CustomerName)
	require.Len(t, inv.Lines, 2)
	require.Equal(t, "HotWind 100", inv.Lines[0].ModelName)
	require.True(t, inv.Lines[0].LineTotal.Equal(decimal.RequireFromString("201.00")))
	require.True(t, inv.Lines[1].LineTotal.Equal(decimal.RequireFromString("600.00")))

	sum := decimal.Zero
	for _, line := range inv.Lines {
		sum = sum.Add(line.LineTotal)
	}
	require.True(t, inv.TotalAmount.Equal(sum), "header total must equal line sum exactly")
}

func TestCreateInvoiceDeductsLotsFIFO(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 7, UnitPriceUAH: decimal.RequireFromString("150.00")},
		},
	})
	require.NoError(t, err)

	require.Equal(t, 0, store.lots[0].QuantityRemaining, "oldest lot drains first")
	require.Equal(t, 3, store.lots[1].QuantityRemaining)
}

func TestCreateInvoiceCustomerNotFound(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  99,
		InvoiceDate: time.Now(),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 1, UnitPriceUAH: decimal.NewFromInt(10)},
		},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, store.invoices)
}

func TestCreateInvoiceModelNotFound(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Now(),
		Lines: []CreateInvoiceLineParams{
			{SKU: "NO-SUCH", Quantity: 1, UnitPriceUAH: decimal.NewFromInt(10)},
		},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, store.invoices)
}

func TestCreateInvoiceInsufficientStockBeforeMutation(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Now(),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 11, UnitPriceUAH: decimal.NewFromInt(10)},
		},
	})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	require.Contains(t, err.Error(), "10 units available, 11 requested")

	require.Empty(t, store.invoices)
	for _, lot := range store.lots {
		require.Equal(t, lot.QuantityPurchased, lot.QuantityRemaining, "no lot may be touched")
	}
}

func TestCreateInvoiceRollsBackOnAllocationFailure(t *testing.T) {
	store := seededStore()
	// bypass the stock pre-check so allocation hits exhausted lots
	svc := NewService(store, customerDir{store}, modelDir{store}, inflatedStock{})

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Now(),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 25, UnitPriceUAH: decimal.NewFromInt(10)},
		},
	})
	require.ErrorIs(t, err, shared.ErrConflict)

	require.Empty(t, store.invoices, "no partial invoice may remain")
	for _, lot := range store.lots {
		require.Equal(t, lot.QuantityPurchased, lot.QuantityRemaining, "lot deductions must roll back")
	}
}

func TestCreateInvoiceRollsBackOnStorageFailure(t *testing.T) {
	store := seededStore()
	store.failLineInsert = true
	svc := newTestService(store)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
		CustomerID:  1,
		InvoiceDate: time.Now(),
		Lines: []CreateInvoiceLineParams{
			{SKU: "HW-100", Quantity: 1, UnitPriceUAH: decimal.NewFromInt(10)},
		},
	})
	require.Error(t, err)
	require.Empty(t, store.invoices)
}

func TestRecentInvoicesNewestFirst(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	for day := 1; day <= 3; day++ {
		_, err := svc.CreateInvoice(context.Background(), CreateInvoiceParams{
			CustomerID:  1,
			InvoiceDate: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
			Lines: []CreateInvoiceLineParams{
				{SKU: "HW-100", Quantity: 1, UnitPriceUAH: decimal.NewFromInt(10)},
			},
		})
		require.NoError(t, err)
	}

	summaries, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, int64(3), summaries[0].InvoiceID)
	require.Equal(t, int64(2), summaries[1].InvoiceID)
	require.Equal(t, 1, summaries[0].LineCount)
}
