package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockReportItem values the remaining stock of one SKU at today's rates.
type StockReportItem struct {
	SKU                         string          `json:"sku"`
	ModelName                   string          `json:"model_name"`
	Manufacturer                string          `json:"manufacturer"`
	StockLevel                  int             `json:"stock_level"`
	LotCount                    int             `json:"lot_count"`
	WeightedAvgPurchasePriceUAH decimal.Decimal `json:"weighted_avg_purchase_price_uah"`
	ListPriceUAH                decimal.Decimal `json:"list_price_uah"`
	PotentialProfit             decimal.Decimal `json:"potential_profit"`
	ProfitMarginPercent         decimal.Decimal `json:"profit_margin_percent"`
}

// PriceListReportItem compares a SKU's historical lot cost against its current
// list-price market value.
type PriceListReportItem struct {
	SKU                    string          `json:"sku"`
	ModelName              string          `json:"model_name"`
	Manufacturer           string          `json:"manufacturer"`
	StockLevel             int             `json:"stock_level"`
	WeightedLotValueUAH    decimal.Decimal `json:"weighted_lot_value_uah"`
	CurrentMarketValueUAH  decimal.Decimal `json:"current_market_value_uah"`
	ValueDifferenceUAH     decimal.Decimal `json:"value_difference_uah"`
	ValueDifferencePercent decimal.Decimal `json:"value_difference_percent"`
}

// CurrencyTranslationReportItem shows how repricing a period's sales at
// today's rates instead of the sale-time rates shifts their value.
type CurrencyTranslationReportItem struct {
	SKU                       string          `json:"sku"`
	ModelName                 string          `json:"model_name"`
	Manufacturer              string          `json:"manufacturer"`
	TotalUnitsSold            int             `json:"total_units_sold"`
	HistoricalValueUAH        decimal.Decimal `json:"historical_value_uah"`
	CurrentValueUAH           decimal.Decimal `json:"current_value_uah"`
	ValueDifferenceUAH        decimal.Decimal `json:"value_difference_uah"`
	ExchangeRateImpactPercent decimal.Decimal `json:"exchange_rate_impact_percent"`
}

// LotRow is one open purchase lot with its vendor currency, the raw input of
// the stock and price-list reports.
type LotRow struct {
	SKU               string
	ModelName         string
	Manufacturer      string
	QuantityRemaining int
	UnitPriceOriginal decimal.Decimal
	CurrencyCode      string
}

// SaleRow is one (SKU, invoice date) sale paired with the cost basis of the
// earliest purchase lot for that SKU. Using the earliest lot rather than the
// lots actually consumed at sale time is deliberate, documented behavior;
// changing it changes the translation report's output.
type SaleRow struct {
	SKU               string
	ModelName         string
	Manufacturer      string
	InvoiceDate       time.Time
	QuantitySold      int
	UnitPriceUAH      decimal.Decimal
	UnitPriceOriginal *decimal.Decimal
	CurrencyCode      *string
}
