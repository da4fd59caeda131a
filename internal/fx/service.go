package fx

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service resolves rates and drives generation.
type Service struct {
	store     GeneratorStore
	generator *Generator
	local     string
}

// NewService builds Service.
func NewService(store GeneratorStore, generator *Generator, local string) *Service {
	return &Service{store: store, generator: generator, local: local}
}

// LocalCurrency returns the invoicing/reporting currency.
func (s *Service) LocalCurrency() string {
	return s.local
}

// Rate resolves the applicable rate for a pair on or before date. A pair of
// identical currencies is unity without consulting storage.
func (s *Service) Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if err := ValidateCurrency(from); err != nil {
		return decimal.Decimal{}, err
	}
	if err := ValidateCurrency(to); err != nil {
		return decimal.Decimal{}, err
	}
	return s.store.Rate(ctx, from, to, date)
}

// Generate synthesizes daily rates over [start, end] and reports how many rows
// were newly inserted.
func (s *Service) Generate(ctx context.Context, start, end time.Time) (int, error) {
	return s.generator.Generate(ctx, start, end)
}
