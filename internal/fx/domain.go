package fx

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// ExchangeRate is the conversion rate for a currency pair on a date. Rows are
// append-only; a rate for a (from, to, date) triple is never overwritten.
type ExchangeRate struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	RateDate     time.Time       `json:"rate_date"`
	Rate         decimal.Decimal `json:"rate"`
}

// SeedRange bounds the uniform draw used to seed a synthetic rate series when
// no prior rate exists for the pair.
type SeedRange struct {
	Low  float64
	High float64
}

// DefaultSeedRanges maps currency codes to plausible initial rates against the
// local currency. Codes not listed fall back to FallbackSeedRange.
var DefaultSeedRanges = map[string]SeedRange{
	"USD": {Low: 36, High: 41},
	"EUR": {Low: 40, High: 45},
	"CNY": {Low: 4.5, High: 6.5},
	"PLN": {Low: 9, High: 11},
}

// FallbackSeedRange covers currencies without a dedicated entry.
var FallbackSeedRange = SeedRange{Low: 10, High: 20}

// ValidateCurrency checks the code is a well-formed ISO 4217 unit.
func ValidateCurrency(code string) error {
	if _, err := currency.ParseISO(code); err != nil {
		return fmt.Errorf("%w: currency %q", shared.ErrInvalidInput, code)
	}
	return nil
}
