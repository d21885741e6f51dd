package analysis

import (
	"math"

	"basket-backtest/internal/backtest"
)

// Summary holds the headline numbers of one run.
// TotalReturnPct and MaxDrawdownPct are NaN when undefined.
type Summary struct {
	StartingCash     float64
	FinalCash        float64
	FinalInvested    float64
	FinalTotalWealth float64
	PnL              float64
	TotalReturnPct   float64
	MaxDrawdownPct   float64
	TradeCount       int
}

// Summarize derives the summary of a run. An empty run reports its
// starting cash as final wealth with zero trades.
func Summarize(res *backtest.Result, startingCash float64) Summary {
	s := Summary{
		StartingCash:     startingCash,
		FinalCash:        startingCash,
		FinalTotalWealth: startingCash,
		TotalReturnPct:   math.NaN(),
		MaxDrawdownPct:   math.NaN(),
	}
	if last, ok := res.Final(); ok {
		s.FinalCash = last.Cash
		s.FinalInvested = last.InvestedValue
		s.FinalTotalWealth = last.TotalWealth
	}
	if res != nil {
		s.TradeCount = len(res.Trades)
		if dd, ok := MaxDrawdownPct(res.WealthCurve()); ok {
			s.MaxDrawdownPct = dd
		}
	}
	s.PnL = s.FinalTotalWealth - startingCash
	if startingCash > 0 {
		s.TotalReturnPct = s.PnL / startingCash * 100.0
	}
	return s
}

// MaxDrawdownPct is min over t of (equity_t / max_{s<=t} equity_s - 1) * 100.
// Non-finite points are skipped; ok is false when no finite point exists.
// While the running peak is 0, a negative point is an unbounded drawdown
// (-Inf) and a zero point carries no ratio.
func MaxDrawdownPct(curve []float64) (float64, bool) {
	peak := math.Inf(-1)
	worst := 0.0
	seen := false
	for _, v := range curve {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !seen || v > peak {
			peak = v
		}
		seen = true
		if peak == 0 {
			if v < 0 {
				worst = math.Inf(-1)
			}
			continue
		}
		dd := v/peak - 1.0
		if dd < worst {
			worst = dd
		}
	}
	if !seen {
		return 0, false
	}
	return worst * 100.0, true
}

// Defined reports whether a metric carries a value.
func Defined(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
