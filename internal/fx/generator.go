package fx

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// Geometric Brownian motion parameters: a slight upward daily drift and 1.5%
// daily volatility produce a plausible-looking walk.
const (
	DefaultDrift      = 0.0001
	DefaultVolatility = 0.015
)

// rateScale is the number of decimal places stored per rate.
const rateScale = 6

// UniformSource yields uniform draws in [0, 1). *rand.Rand satisfies it; tests
// inject fixed sequences to pin the GBM output down.
type UniformSource interface {
	Float64() float64
}

// GeneratorStore is the storage surface the generator needs.
type GeneratorStore interface {
	Rate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
	Exists(ctx context.Context, from, to string, date time.Time) (bool, error)
	InsertMany(ctx context.Context, rates []ExchangeRate) (int, error)
	AvailableCurrencies(ctx context.Context) ([]string, error)
}

// Generator synthesizes daily exchange-rate series per currency pair using a
// geometric Brownian motion step.
type Generator struct {
	store      GeneratorStore
	rand       UniformSource
	drift      float64
	volatility float64
	local      string
	seeds      map[string]SeedRange
}

// GeneratorConfig groups optional settings; zero values take the defaults.
type GeneratorConfig struct {
	Drift      float64
	Volatility float64
	SeedRanges map[string]SeedRange
}

// NewGenerator builds Generator. local is the quote currency for every
// generated pair.
func NewGenerator(store GeneratorStore, rnd UniformSource, local string, cfg GeneratorConfig) *Generator {
	g := &Generator{
		store:      store,
		rand:       rnd,
		drift:      cfg.Drift,
		volatility: cfg.Volatility,
		local:      local,
		seeds:      cfg.SeedRanges,
	}
	if g.drift == 0 {
		g.drift = DefaultDrift
	}
	if g.volatility == 0 {
		g.volatility = DefaultVolatility
	}
	if g.seeds == nil {
		g.seeds = DefaultSeedRanges
	}
	return g
}

// Generate fills in daily rates for every available currency against the local
// currency over [start, end] inclusive. Existing rates are never overwritten;
// they are carried forward as the previous value for the next day's step.
// Returns the number of rows actually inserted.
func (g *Generator) Generate(ctx context.Context, start, end time.Time) (int, error) {
	start = midnight(start)
	end = midnight(end)
	if start.After(end) {
		return 0, fmt.Errorf("%w: start date must be before or equal to end date", shared.ErrInvalidInput)
	}

	currencies, err := g.store.AvailableCurrencies(ctx)
	if err != nil {
		return 0, fmt.Errorf("fx: list currencies: %w", err)
	}

	var toInsert []ExchangeRate
	for _, cur := range currencies {
		series, err := g.generateSeries(ctx, cur, start, end)
		if err != nil {
			return 0, err
		}
		toInsert = append(toInsert, series...)
	}

	inserted, err := g.store.InsertMany(ctx, toInsert)
	if err != nil {
		return 0, fmt.Errorf("fx: insert rates: %w", err)
	}
	return inserted, nil
}

func (g *Generator) generateSeries(ctx context.Context, cur string, start, end time.Time) ([]ExchangeRate, error) {
	previous, err := g.store.Rate(ctx, cur, g.local, start.AddDate(0, 0, -1))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("fx: seed lookup for %s: %w", cur, err)
		}
		previous = g.seedRate(cur)
	}

	var series []ExchangeRate
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		exists, err := g.store.Exists(ctx, cur, g.local, day)
		if err != nil {
			return nil, fmt.Errorf("fx: check %s on %s: %w", cur, day.Format("2006-01-02"), err)
		}
		if exists {
			previous, err = g.store.Rate(ctx, cur, g.local, day)
			if err != nil {
				return nil, fmt.Errorf("fx: read existing %s rate: %w", cur, err)
			}
			continue
		}
		next := g.nextRate(previous)
		series = append(series, ExchangeRate{
			FromCurrency: cur,
			ToCurrency:   g.local,
			RateDate:     day,
			Rate:         next,
		})
		previous = next
	}
	return series, nil
}

// nextRate applies one GBM step:
// S(t+1) = S(t) * exp((mu - sigma^2/2)*dt + sigma*sqrt(dt)*Z), dt = one day.
func (g *Generator) nextRate(previous decimal.Decimal) decimal.Decimal {
	const dt = 1.0
	z := g.standardNormal()
	drift := (g.drift - 0.5*g.volatility*g.volatility) * dt
	diffusion := g.volatility * math.Sqrt(dt) * z
	multiplier := decimal.NewFromFloat(math.Exp(drift + diffusion))
	return previous.Mul(multiplier).Round(rateScale)
}

func (g *Generator) seedRate(cur string) decimal.Decimal {
	rng, ok := g.seeds[cur]
	if !ok {
		rng = FallbackSeedRange
	}
	seed := rng.Low + g.rand.Float64()*(rng.High-rng.Low)
	return decimal.NewFromFloat(seed).Round(rateScale)
}

// standardNormal draws a standard normal variate via the Box-Muller transform.
func (g *Generator) standardNormal() float64 {
	u1 := 1.0 - g.rand.Float64() // uniform (0, 1]
	u2 := 1.0 - g.rand.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
