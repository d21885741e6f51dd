package model

import (
	"errors"
	"fmt"
	"sort"
)

// SimulationParams is the full lever set for one simulation run.
// Units:
// - money fields: USD
// - *Pct fields: percent (2.0 = 2%)
// - FeeBps: basis points applied to each buy and sell
// - window fields: number of observations, not calendar days
type SimulationParams struct {
	BuyUnitByTicker map[string]float64

	StartingCash        float64
	AnnualCashYieldPct  float64
	AnnualBorrowRatePct float64
	AllowLeverage       bool

	BuyThresholdPct  float64
	BuyWindowDays    int
	SellThresholdPct float64
	SellWindowDays   int
	SellMode         SellMode

	FeeBps       float64
	AllowReentry bool
}

// Validate reports lever values a caller should not submit.
// The engine does not call it: degenerate values there produce undefined signals instead.
func (p SimulationParams) Validate() error {
	if len(p.BuyUnitByTicker) == 0 {
		return errors.New("at least one ticker is required")
	}
	for t, u := range p.BuyUnitByTicker {
		n, err := NormalizeTicker(t)
		if err != nil {
			return err
		}
		if n != t {
			return fmt.Errorf("ticker %q is not normalized (use %q)", t, n)
		}
		if u < 0 {
			return fmt.Errorf("buy unit for %s must be >= 0", t)
		}
	}
	if p.StartingCash < 0 {
		return errors.New("starting cash must be >= 0")
	}
	if p.AnnualCashYieldPct < 0 || p.AnnualBorrowRatePct < 0 {
		return errors.New("cash yield and borrow rate must be >= 0")
	}
	if p.BuyWindowDays < 1 || p.SellWindowDays < 1 {
		return errors.New("buy and sell windows must be >= 1")
	}
	if p.FeeBps < 0 {
		return errors.New("fee bps must be >= 0")
	}
	if p.SellMode != SellOnDrop && p.SellMode != SellOnGain {
		return fmt.Errorf("invalid sell mode %q", p.SellMode)
	}
	return nil
}

// Tickers returns the configured universe, normalized, in sorted order.
// The engine visits tickers in this order within a timestamp, which matters when cash is scarce.
func (p SimulationParams) Tickers() []string {
	units := p.BuyUnits()
	out := make([]string, 0, len(units))
	for t := range units {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// BuyUnits returns BuyUnitByTicker keyed by normalized ticker, so it lines
// up with panel columns. Blank keys are dropped. When two keys normalize to
// the same ticker, the one already normalized wins, else the first in
// sorted key order.
func (p SimulationParams) BuyUnits() map[string]float64 {
	raws := make([]string, 0, len(p.BuyUnitByTicker))
	for raw := range p.BuyUnitByTicker {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	out := make(map[string]float64, len(raws))
	for _, raw := range raws {
		u := p.BuyUnitByTicker[raw]
		t, err := NormalizeTicker(raw)
		if err != nil {
			continue
		}
		if _, taken := out[t]; taken && raw != t {
			continue
		}
		out[t] = u
	}
	return out
}

// WithUniformBuyUnit returns a copy whose every ticker deploys usd per buy.
func (p SimulationParams) WithUniformBuyUnit(usd float64) SimulationParams {
	units := make(map[string]float64, len(p.BuyUnitByTicker))
	for t := range p.BuyUnitByTicker {
		units[t] = usd
	}
	p.BuyUnitByTicker = units
	return p
}
