package model

import (
	"math"
)

// InstrumentState is the per-ticker state of one run.
type InstrumentState struct {
	Ticker string

	Shares    float64
	LastPrice float64
	HasPrice  bool

	// History holds observed prices only; missing timestamps are skipped,
	// so an index counts observations rather than calendar days.
	History []float64

	BuyCount       int
	SellCount      int
	NotionalBought float64
	ProceedsSold   float64
}

func NewInstrumentState(ticker string) *InstrumentState {
	return &InstrumentState{Ticker: ticker}
}

// Observe records a price for the current timestamp.
func (s *InstrumentState) Observe(price float64) {
	s.LastPrice = price
	s.HasPrice = true
	s.History = append(s.History, price)
}

// TrailingReturnPct is the percent change between the latest observation and
// the one window observations earlier. ok is false when the history is too
// short, the window is < 1, or the reference price cannot be divided by.
func (s *InstrumentState) TrailingReturnPct(window int) (float64, bool) {
	n := len(s.History)
	if window < 1 || n <= window {
		return 0, false
	}
	ref := s.History[n-1-window]
	if ref == 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return 0, false
	}
	r := (s.History[n-1]/ref - 1.0) * 100.0
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// PositionValue marks the position at the last observed price (0 if never observed).
func (s *InstrumentState) PositionValue() float64 {
	if !s.HasPrice {
		return 0
	}
	return s.Shares * s.LastPrice
}

// CashAccount is the single cash balance shared by every ticker in a run.
// A negative balance is borrowed money and only occurs when AllowLeverage is set.
type CashAccount struct {
	Balance       float64
	AllowLeverage bool
}

func NewCashAccount(startingCash float64, allowLeverage bool) *CashAccount {
	return &CashAccount{Balance: math.Max(0, startingCash), AllowLeverage: allowLeverage}
}

// Accrue applies one step of carry. Positive cash compounds at the cash yield,
// negative cash at the borrow rate; exactly one applies per step.
func (c *CashAccount) Accrue(days, annualYieldPct, annualBorrowPct float64) {
	if days <= 0 {
		return
	}
	yield := math.Max(0, annualYieldPct) / 100.0
	borrow := math.Max(0, annualBorrowPct) / 100.0
	switch {
	case c.Balance > 0 && yield > 0:
		c.Balance *= math.Pow(1.0+yield, days/365.0)
	case c.Balance < 0 && borrow > 0:
		c.Balance *= math.Pow(1.0+borrow, days/365.0)
	}
}

// Fill describes an executed buy or sell.
type Fill struct {
	Shares      float64
	OrderUSD    float64
	ProceedsNet float64
	CashBefore  float64
	CashAfter   float64
	SharesAfter float64
}

// Buy spends unitUSD on st at price. The fee is carved out of the unit:
// shares = unitUSD / (1 + feeBps/10000) / price.
// ok is false, and nothing changes, when the unit is not positive, the price
// is not positive, or leverage is off and cash does not cover the unit.
func (c *CashAccount) Buy(st *InstrumentState, unitUSD, price, feeBps float64) (Fill, bool) {
	if unitUSD <= 0 || price <= 0 {
		return Fill{}, false
	}
	if !c.AllowLeverage && c.Balance < unitUSD {
		return Fill{}, false
	}
	feeBuy := 1.0 + feeBps/10000.0
	shares := (unitUSD / feeBuy) / price
	if shares < 0 || math.IsNaN(shares) || math.IsInf(shares, 0) {
		return Fill{}, false
	}

	f := Fill{CashBefore: c.Balance, OrderUSD: unitUSD, Shares: shares}
	c.Balance -= unitUSD
	st.Shares += shares
	st.BuyCount++
	st.NotionalBought += unitUSD

	f.CashAfter = c.Balance
	f.SharesAfter = st.Shares
	return f, true
}

// Sell liquidates the whole position at price net of fee.
func (c *CashAccount) Sell(st *InstrumentState, price, feeBps float64) (Fill, bool) {
	if st.Shares <= 0 {
		return Fill{}, false
	}
	feeSell := 1.0 - feeBps/10000.0
	net := st.Shares * price * feeSell

	f := Fill{CashBefore: c.Balance, Shares: st.Shares, ProceedsNet: net}
	c.Balance += net
	st.Shares = 0
	st.SellCount++
	st.ProceedsSold += net

	f.CashAfter = c.Balance
	f.SharesAfter = st.Shares
	return f, true
}
