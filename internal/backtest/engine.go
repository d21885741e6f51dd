package backtest

import (
	"sort"
	"time"

	"basket-backtest/internal/model"
	"basket-backtest/internal/strategy"
)

// Engine runs one fully specified configuration over a panel.
// It holds no state between runs and is safe for concurrent use.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Run walks the panel once in time order. Each timestamp it applies cash
// carry, lets every ticker with a price decide, and records an equity snapshot.
//
// Undefined signals, zero buy units and insufficient cash are silent no-ops,
// and an empty panel or universe yields an empty result, never an error.
func (e *Engine) Run(panel *model.PricePanel, params model.SimulationParams) *Result {
	return e.RunStrategy(panel, params, strategy.NewThreshold(strategy.ThresholdParamsFrom(params)))
}

// RunStrategy is Run with an explicit decision rule.
func (e *Engine) RunStrategy(panel *model.PricePanel, params model.SimulationParams, strat strategy.Strategy) *Result {
	units := params.BuyUnits()
	tickers := params.Tickers()
	cash := model.NewCashAccount(params.StartingCash, params.AllowLeverage)
	state := make(map[string]*model.InstrumentState, len(tickers))
	for _, t := range tickers {
		state[t] = model.NewInstrumentState(t)
	}

	n := panel.Len()
	res := &Result{
		StartingCash: params.StartingCash,
		Trades:       []Trade{},
		Equity:       make([]EquitySnapshot, 0, n),
	}

	for idx := 0; idx < n; idx++ {
		ts := panel.Time(idx)
		if idx > 0 {
			days := ts.Sub(panel.Time(idx-1)).Seconds() / 86400.0
			cash.Accrue(days, params.AnnualCashYieldPct, params.AnnualBorrowRatePct)
		}

		for _, t := range tickers {
			px, ok := panel.Price(idx, t)
			if !ok {
				continue
			}
			st := state[t]
			st.Observe(px)

			d := strat.Decide(strategy.Context{Index: idx, State: st})
			switch {
			case d.Sell:
				if f, ok := cash.Sell(st, px, params.FeeBps); ok {
					res.Trades = append(res.Trades, newTrade(ts, t, model.ActionSell, px, f, d.SellSignal))
				}
			case d.Buy:
				if f, ok := cash.Buy(st, units[t], px, params.FeeBps); ok {
					res.Trades = append(res.Trades, newTrade(ts, t, model.ActionBuy, px, f, d.BuySignal))
				}
			}
		}

		invested := 0.0
		for _, t := range tickers {
			invested += state[t].PositionValue()
		}
		res.Equity = append(res.Equity, EquitySnapshot{
			Time:          ts,
			Cash:          cash.Balance,
			InvestedValue: invested,
			DeployedValue: invested,
			TotalWealth:   cash.Balance + invested,
		})
	}

	sort.SliceStable(res.Trades, func(i, j int) bool {
		a, b := res.Trades[i], res.Trades[j]
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		return a.Action < b.Action
	})

	res.Holdings = finalHoldings(tickers, state, units)
	return res
}

func newTrade(ts time.Time, ticker string, action model.Action, price float64, f model.Fill, sig strategy.Signal) Trade {
	return Trade{
		Time:             ts,
		Ticker:           ticker,
		Action:           action,
		Price:            price,
		Shares:           f.Shares,
		OrderUSD:         f.OrderUSD,
		ProceedsNet:      f.ProceedsNet,
		CashBefore:       f.CashBefore,
		CashAfter:        f.CashAfter,
		SharesAfter:      f.SharesAfter,
		SignalReturnPct:  sig.Pct,
		SignalWindowDays: sig.Window,
	}
}

// finalHoldings is ordered by position value, largest first.
func finalHoldings(tickers []string, state map[string]*model.InstrumentState, units map[string]float64) []Holding {
	out := make([]Holding, 0, len(tickers))
	for _, t := range tickers {
		st := state[t]
		out = append(out, Holding{
			Ticker:         t,
			BuyUnitUSD:     units[t],
			LastPrice:      st.LastPrice,
			EndingShares:   st.Shares,
			PositionValue:  st.PositionValue(),
			NotionalBought: st.NotionalBought,
			ProceedsSold:   st.ProceedsSold,
			NetFlow:        st.ProceedsSold - st.NotionalBought,
			Buys:           st.BuyCount,
			Sells:          st.SellCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PositionValue > out[j].PositionValue
	})
	return out
}
