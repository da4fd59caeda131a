package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Store supplies the raw report inputs.
type Store interface {
	LotRows(ctx context.Context) ([]LotRow, error)
	CurrentListPrices(ctx context.Context) (map[string]decimal.Decimal, error)
	SalesRows(ctx context.Context, start, end time.Time) ([]SaleRow, error)
}

// RateLookup resolves conversion rates into the local currency.
type RateLookup interface {
	Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
	LocalCurrency() string
}

// Service computes the three valuation reports. All money arithmetic runs on
// exact decimals; every output amount is rounded to 2 places at the end.
type Service struct {
	store Store
	rates RateLookup
	cache *Cache
	now   func() time.Time
}

// NewService builds Service. cache may be nil; reports are then computed on
// every call.
func NewService(store Store, rates RateLookup, cache *Cache) *Service {
	return &Service{store: store, rates: rates, cache: cache, now: time.Now}
}

// StockReport values remaining stock per SKU at today's rates.
func (s *Service) StockReport(ctx context.Context) ([]StockReportItem, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "stock")
	if err != nil {
		return nil, err
	}
	var items []StockReportItem
	err = s.cache.FetchJSON(ctx, key, &items, func(ctx context.Context) (interface{}, error) {
		return s.computeStockReport(ctx)
	})
	return items, err
}

// PriceListReport compares lot cost against list-price market value per SKU.
func (s *Service) PriceListReport(ctx context.Context) ([]PriceListReportItem, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "price-list")
	if err != nil {
		return nil, err
	}
	var items []PriceListReportItem
	err = s.cache.FetchJSON(ctx, key, &items, func(ctx context.Context) (interface{}, error) {
		return s.computePriceListReport(ctx)
	})
	return items, err
}

// CurrencyTranslationReport reprices the period's sales at today's rates.
func (s *Service) CurrencyTranslationReport(ctx context.Context, start, end time.Time) ([]CurrencyTranslationReportItem, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date must be before or equal to end date", shared.ErrInvalidInput)
	}
	key, err := s.cache.BuildKey(ctx, "reports", "translation",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	var items []CurrencyTranslationReportItem
	err = s.cache.FetchJSON(ctx, key, &items, func(ctx context.Context) (interface{}, error) {
		return s.computeCurrencyTranslationReport(ctx, start, end)
	})
	return items, err
}

// lotValuation is the shared per-SKU aggregation of the stock and price-list
// reports: remaining units and their value converted at today's rates.
type lotValuation struct {
	sku          string
	modelName    string
	manufacturer string
	stock        int
	lotCount     int
	value        decimal.Decimal
}

func (s *Service) valueOpenLots(ctx context.Context) ([]lotValuation, map[string]decimal.Decimal, error) {
	var (
		lots   []LotRow
		prices map[string]decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lots, err = s.store.LotRows(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.store.CurrentListPrices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	resolve := s.rateResolver(ctx)
	index := map[string]int{}
	valuations := []lotValuation{}
	for _, lot := range lots {
		rate, ok, err := resolve(lot.CurrencyCode)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			// a lot whose currency has no rate yet cannot be valued
			continue
		}
		i, seen := index[lot.SKU]
		if !seen {
			i = len(valuations)
			index[lot.SKU] = i
			valuations = append(valuations, lotValuation{
				sku:          lot.SKU,
				modelName:    lot.ModelName,
				manufacturer: lot.Manufacturer,
				value:        decimal.Zero,
			})
		}
		qty := decimal.NewFromInt(int64(lot.QuantityRemaining))
		valuations[i].stock += lot.QuantityRemaining
		valuations[i].lotCount++
		valuations[i].value = valuations[i].value.Add(lot.UnitPriceOriginal.Mul(rate).Mul(qty))
	}
	return valuations, prices, nil
}

func (s *Service) computeStockReport(ctx context.Context) ([]StockReportItem, error) {
	valuations, prices, err := s.valueOpenLots(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]StockReportItem, 0, len(valuations))
	for _, v := range valuations {
		stock := decimal.NewFromInt(int64(v.stock))
		list := prices[v.sku]
		potential := list.Mul(stock).Sub(v.value)
		margin := decimal.Zero
		if v.value.IsPositive() {
			margin = potential.Div(v.value).Mul(decimal.NewFromInt(100))
		}
		items = append(items, StockReportItem{
			SKU:                         v.sku,
			ModelName:                   v.modelName,
			Manufacturer:                v.manufacturer,
			StockLevel:                  v.stock,
			LotCount:                    v.lotCount,
			WeightedAvgPurchasePriceUAH: v.value.Div(stock).Round(2),
			ListPriceUAH:                list,
			PotentialProfit:             potential.Round(2),
			ProfitMarginPercent:         margin.Round(2),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

func (s *Service) computePriceListReport(ctx context.Context) ([]PriceListReportItem, error) {
	valuations, prices, err := s.valueOpenLots(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]PriceListReportItem, 0, len(valuations))
	for _, v := range valuations {
		stock := decimal.NewFromInt(int64(v.stock))
		list := prices[v.sku]
		market := list.Mul(stock)
		diff := market.Sub(v.value)
		percent := decimal.Zero
		if v.value.IsPositive() {
			percent = diff.Div(v.value).Mul(decimal.NewFromInt(100))
		}
		items = append(items, PriceListReportItem{
			SKU:                    v.sku,
			ModelName:              v.modelName,
			Manufacturer:           v.manufacturer,
			StockLevel:             v.stock,
			WeightedLotValueUAH:    v.value.Round(2),
			CurrentMarketValueUAH:  market.Round(2),
			ValueDifferenceUAH:     diff.Round(2),
			ValueDifferencePercent: percent.Round(2),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ValueDifferenceUAH.GreaterThan(items[j].ValueDifferenceUAH)
	})
	return items, nil
}

func (s *Service) computeCurrencyTranslationReport(ctx context.Context, start, end time.Time) ([]CurrencyTranslationReportItem, error) {
	sales, err := s.store.SalesRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	type saleAgg struct {
		sku          string
		modelName    string
		manufacturer string
		units        int
		historical   decimal.Decimal
		current      decimal.Decimal
		hasForeign   bool
	}

	resolve := s.rateResolver(ctx)
	local := s.rates.LocalCurrency()
	index := map[string]int{}
	aggs := []saleAgg{}
	for _, sale := range sales {
		i, seen := index[sale.SKU]
		if !seen {
			i = len(aggs)
			index[sale.SKU] = i
			aggs = append(aggs, saleAgg{
				sku:          sale.SKU,
				modelName:    sale.ModelName,
				manufacturer: sale.Manufacturer,
				historical:   decimal.Zero,
				current:      decimal.Zero,
			})
		}
		qty := decimal.NewFromInt(int64(sale.QuantitySold))
		lineHistorical := sale.UnitPriceUAH.Mul(qty)
		aggs[i].units += sale.QuantitySold
		aggs[i].historical = aggs[i].historical.Add(lineHistorical)

		// a cost basis in the local currency carries no exchange exposure;
		// only foreign-currency lots get repriced
		repriced := lineHistorical
		if sale.CurrencyCode != nil && sale.UnitPriceOriginal != nil && *sale.CurrencyCode != local {
			rate, ok, err := resolve(*sale.CurrencyCode)
			if err != nil {
				return nil, err
			}
			if ok {
				repriced = sale.UnitPriceOriginal.Mul(rate).Mul(qty)
				aggs[i].hasForeign = true
			}
		}
		aggs[i].current = aggs[i].current.Add(repriced)
	}

	items := make([]CurrencyTranslationReportItem, 0, len(aggs))
	for _, a := range aggs {
		if a.units <= 0 {
			continue
		}
		diff := decimal.Zero
		impact := decimal.Zero
		if a.hasForeign {
			diff = a.current.Sub(a.historical)
			if a.historical.IsPositive() {
				impact = diff.Div(a.historical).Mul(decimal.NewFromInt(100))
			}
		}
		items = append(items, CurrencyTranslationReportItem{
			SKU:                       a.sku,
			ModelName:                 a.modelName,
			Manufacturer:              a.manufacturer,
			TotalUnitsSold:            a.units,
			HistoricalValueUAH:        a.historical.Round(2),
			CurrentValueUAH:           a.current.Round(2),
			ValueDifferenceUAH:        diff.Round(2),
			ExchangeRateImpactPercent: impact.Round(2),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TotalUnitsSold != items[j].TotalUnitsSold {
			return items[i].TotalUnitsSold > items[j].TotalUnitsSold
		}
		return items[i].SKU < items[j].SKU
	})
	return items, nil
}

// rateResolver memoizes today's rate per currency for one report computation.
// A currency without any stored rate resolves to ok=false rather than an
// error so the caller can drop or fall back per row.
func (s *Service) rateResolver(ctx context.Context) func(currency string) (decimal.Decimal, bool, error) {
	type cached struct {
		rate decimal.Decimal
		ok   bool
	}
	local := s.rates.LocalCurrency()
	today := s.now().UTC()
	memo := map[string]cached{}
	return func(currency string) (decimal.Decimal, bool, error) {
		if hit, seen := memo[currency]; seen {
			return hit.rate, hit.ok, nil
		}
		rate, err := s.rates.Rate(ctx, currency, local, today)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				memo[currency] = cached{ok: false}
				return decimal.Decimal{}, false, nil
			}
			return decimal.Decimal{}, false, err
		}
		memo[currency] = cached{rate: rate, ok: true}
		return rate, true, nil
	}
}
