package strategy

import (
	"math"

	"basket-backtest/internal/model"
)

// ThresholdParams are the levers of the trailing-return rule.
type ThresholdParams struct {
	BuyThresholdPct  float64
	BuyWindowDays    int
	SellThresholdPct float64
	SellWindowDays   int
	SellMode         model.SellMode
	AllowReentry     bool
}

func ThresholdParamsFrom(p model.SimulationParams) ThresholdParams {
	return ThresholdParams{
		BuyThresholdPct:  p.BuyThresholdPct,
		BuyWindowDays:    p.BuyWindowDays,
		SellThresholdPct: p.SellThresholdPct,
		SellWindowDays:   p.SellWindowDays,
		SellMode:         p.SellMode,
		AllowReentry:     p.AllowReentry,
	}
}

// Threshold buys when the buy-window return reaches the buy threshold and
// liquidates when the sell-window return crosses |sell threshold| in the
// direction chosen by SellMode.
//
// A flat ticker buys only if re-entry is allowed or it has never bought.
// A held ticker sells on a sell signal; otherwise a buy signal adds another
// unit (pyramiding, uncapped).
type Threshold struct {
	Params ThresholdParams
}

func NewThreshold(p ThresholdParams) *Threshold { return &Threshold{Params: p} }

func (s *Threshold) Name() string { return "threshold" }

func (s *Threshold) Decide(ctx Context) Decision {
	st := ctx.State
	d := Decision{
		BuySignal:  trailing(st, s.Params.BuyWindowDays),
		SellSignal: trailing(st, s.Params.SellWindowDays),
	}
	buySignal := d.BuySignal.Defined && d.BuySignal.Pct >= s.Params.BuyThresholdPct

	if st.Shares <= 0 {
		canEnter := s.Params.AllowReentry || st.BuyCount == 0
		d.Buy = canEnter && buySignal
		return d
	}

	if d.SellSignal.Defined {
		th := math.Abs(s.Params.SellThresholdPct)
		if s.Params.SellMode == model.SellOnDrop {
			d.Sell = d.SellSignal.Pct <= -th
		} else {
			d.Sell = d.SellSignal.Pct >= th
		}
	}
	d.Buy = !d.Sell && buySignal
	return d
}

func trailing(st *model.InstrumentState, window int) Signal {
	pct, ok := st.TrailingReturnPct(window)
	return Signal{Pct: pct, Defined: ok, Window: window}
}
