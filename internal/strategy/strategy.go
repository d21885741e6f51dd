package strategy

import "basket-backtest/internal/model"

// Context is what a strategy sees for one ticker at one timestamp,
// after the current price has been appended to the state's history.
type Context struct {
	Index int
	State *model.InstrumentState
}

// Signal is a trailing return that may be undefined.
type Signal struct {
	Pct     float64
	Defined bool
	Window  int
}

// Decision is at most one action for a ticker at a timestamp.
// Sell and Buy are never both true.
type Decision struct {
	Buy  bool
	Sell bool

	BuySignal  Signal
	SellSignal Signal
}

type Strategy interface {
	Name() string
	Decide(ctx Context) Decision
}
