package backtest

import (
	"time"

	"basket-backtest/internal/model"
)

// Trade is one executed buy or sell.
// This is the primary artifact for "what happened" in a run.
type Trade struct {
	Time   time.Time
	Ticker string
	Action model.Action

	Price  float64
	Shares float64

	OrderUSD    float64 // BUY only
	ProceedsNet float64 // SELL only

	CashBefore  float64
	CashAfter   float64
	SharesAfter float64

	SignalReturnPct  float64
	SignalWindowDays int
}

// EquitySnapshot is recorded once per panel timestamp, trade or not.
type EquitySnapshot struct {
	Time          time.Time
	Cash          float64
	InvestedValue float64
	DeployedValue float64
	TotalWealth   float64
}

// Holding is the end-of-run summary for one ticker.
type Holding struct {
	Ticker         string
	BuyUnitUSD     float64
	LastPrice      float64
	EndingShares   float64
	PositionValue  float64
	NotionalBought float64
	ProceedsSold   float64
	NetFlow        float64
	Buys           int
	Sells          int
}

type Result struct {
	Trades       []Trade
	Holdings     []Holding
	Equity       []EquitySnapshot
	StartingCash float64
}

// Final returns the last equity snapshot. ok is false for an empty run.
func (r *Result) Final() (EquitySnapshot, bool) {
	if r == nil || len(r.Equity) == 0 {
		return EquitySnapshot{}, false
	}
	return r.Equity[len(r.Equity)-1], true
}

// WealthCurve returns total wealth per timestamp.
func (r *Result) WealthCurve() []float64 {
	out := make([]float64, len(r.Equity))
	for i, e := range r.Equity {
		out[i] = e.TotalWealth
	}
	return out
}
