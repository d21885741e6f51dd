package strategy

import (
	"testing"

	"basket-backtest/internal/model"
)

func stateWith(prices ...float64) *model.InstrumentState {
	s := model.NewInstrumentState("T")
	for _, p := range prices {
		s.Observe(p)
	}
	return s
}

func TestThresholdDecide(t *testing.T) {
	base := ThresholdParams{
		BuyThresholdPct:  2,
		BuyWindowDays:    2,
		SellThresholdPct: 5,
		SellWindowDays:   2,
		SellMode:         model.SellOnDrop,
		AllowReentry:     false,
	}

	cases := []struct {
		name     string
		prices   []float64
		shares   float64
		buys     int
		mode     model.SellMode
		wantBuy  bool
		wantSell bool
	}{
		{"undefined signal", []float64{100, 110}, 0, 0, model.SellOnDrop, false, false},
		{"flat and rising", []float64{100, 101, 103}, 0, 0, model.SellOnDrop, true, false},
		{"no reentry after first buy", []float64{100, 101, 103}, 0, 1, model.SellOnDrop, false, false},
		{"held and rising pyramids", []float64{100, 101, 103}, 5, 1, model.SellOnDrop, true, false},
		{"held and dropping sells", []float64{100, 97, 94}, 5, 1, model.SellOnDrop, false, true},
		{"gain mode sells on rise", []float64{100, 103, 106}, 5, 1, model.SellOnGain, false, true},
		{"gain mode holds on drop", []float64{100, 97, 94}, 5, 1, model.SellOnGain, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.SellMode = tc.mode
			st := stateWith(tc.prices...)
			st.Shares = tc.shares
			st.BuyCount = tc.buys

			d := NewThreshold(p).Decide(Context{State: st})
			if d.Buy != tc.wantBuy || d.Sell != tc.wantSell {
				t.Fatalf("got buy=%v sell=%v, want buy=%v sell=%v (signals %+v %+v)",
					d.Buy, d.Sell, tc.wantBuy, tc.wantSell, d.BuySignal, d.SellSignal)
			}
		})
	}
}

func TestThresholdUsesAbsoluteSellThreshold(t *testing.T) {
	p := ThresholdParams{BuyThresholdPct: 100, BuyWindowDays: 1, SellThresholdPct: -5, SellWindowDays: 1, SellMode: model.SellOnDrop}
	st := stateWith(100, 94)
	st.Shares = 1
	if d := NewThreshold(p).Decide(Context{State: st}); !d.Sell {
		t.Fatal("expected a negative threshold to be treated by magnitude")
	}
}
