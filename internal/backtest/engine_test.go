package backtest

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"basket-backtest/internal/model"
)

func mustPanel(t *testing.T, rows []model.PriceRow) *model.PricePanel {
	t.Helper()
	p, err := model.NewPricePanel(rows)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// series builds one row per day starting 2024-01-01. NaN marks a missing observation.
func series(t *testing.T, ticker string, prices ...float64) *model.PricePanel {
	t.Helper()
	rows := make([]model.PriceRow, len(prices))
	for i, px := range prices {
		rows[i] = model.PriceRow{
			Time:   time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Prices: map[string]float64{ticker: px},
		}
	}
	return mustPanel(t, rows)
}

func baseParams(ticker string, unit float64) model.SimulationParams {
	return model.SimulationParams{
		BuyUnitByTicker:  map[string]float64{ticker: unit},
		StartingCash:     10000,
		AllowLeverage:    false,
		BuyThresholdPct:  2,
		BuyWindowDays:    3,
		SellThresholdPct: 5,
		SellWindowDays:   3,
		SellMode:         model.SellOnDrop,
		AllowReentry:     true,
	}
}

func TestRunFlatPricesNeverTrades(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 50
	}
	res := New().Run(series(t, "SPY", prices...), baseParams("SPY", 1000))

	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
	if len(res.Equity) != 10 {
		t.Fatalf("expected one snapshot per timestamp, got %d", len(res.Equity))
	}
	for i, e := range res.Equity {
		if e.Cash != 10000 || e.TotalWealth != 10000 || e.InvestedValue != 0 {
			t.Fatalf("snapshot %d not constant at starting cash: %+v", i, e)
		}
	}
}

func TestRunNoReentryBuysOnce(t *testing.T) {
	p := baseParams("QQQ", 1000)
	p.AllowReentry = false
	p.SellMode = model.SellOnGain
	p.SellThresholdPct = 2
	p.SellWindowDays = 1

	res := New().Run(series(t, "QQQ", 100, 101, 102, 105, 108, 111, 114, 117), p)

	buys, sells := 0, 0
	for _, tr := range res.Trades {
		switch tr.Action {
		case model.ActionBuy:
			buys++
		case model.ActionSell:
			sells++
		}
	}
	if buys != 1 || sells != 1 {
		t.Fatalf("expected exactly one buy and one sell, got buys=%d sells=%d (%+v)", buys, sells, res.Trades)
	}
	first := res.Trades[0]
	if first.Action != model.ActionBuy || first.Price != 105 || first.SignalWindowDays != 3 {
		t.Fatalf("unexpected first trade %+v", first)
	}
	if math.Abs(first.SignalReturnPct-5.0) > 1e-9 {
		t.Fatalf("expected 5%% buy signal, got %.6f", first.SignalReturnPct)
	}
}

func TestRunSkipsBuyWithoutCash(t *testing.T) {
	p := baseParams("XLE", 1000)
	p.StartingCash = 100
	p.BuyWindowDays = 1

	res := New().Run(series(t, "XLE", 10, 11, 12, 13), p)
	if len(res.Trades) != 0 {
		t.Fatalf("expected buy to be skipped, got %+v", res.Trades)
	}
	final, ok := res.Final()
	if !ok || final.Cash != 100 {
		t.Fatalf("expected cash to remain 100, got %+v", final)
	}
}

func TestRunSellOnDrop(t *testing.T) {
	p := baseParams("XLF", 1000)
	p.BuyWindowDays = 1
	p.SellWindowDays = 1
	p.FeeBps = 10

	res := New().Run(series(t, "XLF", 100, 103, 96.82), p)
	if len(res.Trades) != 2 {
		t.Fatalf("expected buy then sell, got %+v", res.Trades)
	}
	buy, sell := res.Trades[0], res.Trades[1]
	if buy.Action != model.ActionBuy || sell.Action != model.ActionSell {
		t.Fatalf("unexpected actions %s %s", buy.Action, sell.Action)
	}
	if sell.SharesAfter != 0 {
		t.Fatalf("expected full liquidation, got shares_after=%.6f", sell.SharesAfter)
	}
	shares := (1000 / 1.001) / 103
	wantNet := shares * 96.82 * 0.999
	if math.Abs(sell.ProceedsNet-wantNet) > 1e-9 {
		t.Fatalf("expected proceeds %.6f, got %.6f", wantNet, sell.ProceedsNet)
	}
	if math.Abs(sell.CashAfter-(9000+wantNet)) > 1e-9 {
		t.Fatalf("expected proceeds credited to cash, got %.6f", sell.CashAfter)
	}
	if h := res.Holdings[0]; h.Sells != 1 || h.Buys != 1 || h.EndingShares != 0 {
		t.Fatalf("unexpected holding %+v", h)
	}
}

func TestRunPyramidsWhileSignalHolds(t *testing.T) {
	p := baseParams("SMH", 1000)
	p.BuyWindowDays = 1
	p.SellWindowDays = 1

	res := New().Run(series(t, "SMH", 100, 103, 106.09, 109.27), p)
	if len(res.Trades) != 3 {
		t.Fatalf("expected three stacked buys, got %d", len(res.Trades))
	}
	prev := 0.0
	for _, tr := range res.Trades {
		if tr.Action != model.ActionBuy || tr.SharesAfter <= prev {
			t.Fatalf("expected increasing position, got %+v", tr)
		}
		prev = tr.SharesAfter
	}
}

func TestRunMatchesUnnormalizedTickerKeys(t *testing.T) {
	p := baseParams(" smh", 1000)
	p.BuyWindowDays = 1
	p.SellWindowDays = 1

	res := New().Run(series(t, "SMH", 100, 103, 106.09), p)
	if len(res.Trades) != 2 || res.Trades[0].Ticker != "SMH" {
		t.Fatalf("expected two SMH buys, got %+v", res.Trades)
	}
	if len(res.Holdings) != 1 || res.Holdings[0].Ticker != "SMH" || res.Holdings[0].BuyUnitUSD != 1000 {
		t.Fatalf("unexpected holdings %+v", res.Holdings)
	}
}

func TestRunWindowsCountObservations(t *testing.T) {
	p := baseParams("GLD", 1000)
	p.BuyWindowDays = 2

	// Day 2 is missing; the 2-observation return on day 4 compares against day 1.
	res := New().Run(series(t, "GLD", 100, math.NaN(), 101, 103), p)
	if len(res.Trades) != 1 {
		t.Fatalf("expected one buy, got %+v", res.Trades)
	}
	if !res.Trades[0].Time.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected buy time %s", res.Trades[0].Time)
	}
	if math.Abs(res.Trades[0].SignalReturnPct-3.0) > 1e-9 {
		t.Fatalf("expected 3%% signal, got %.6f", res.Trades[0].SignalReturnPct)
	}
}

func TestRunAccruesCarry(t *testing.T) {
	rows := []model.PriceRow{
		{Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Prices: map[string]float64{"TLT": 10}},
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Prices: map[string]float64{"TLT": 10}},
	}
	p := baseParams("TLT", 0)
	p.AnnualCashYieldPct = 10
	res := New().Run(mustPanel(t, rows), p)
	if math.Abs(res.Equity[1].Cash-11000) > 1e-6 {
		t.Fatalf("expected one year of yield, got %.6f", res.Equity[1].Cash)
	}
}

func TestRunEmptyInputs(t *testing.T) {
	res := New().Run(nil, baseParams("SPY", 1000))
	if len(res.Trades) != 0 || len(res.Equity) != 0 {
		t.Fatalf("expected empty outputs, got %+v", res)
	}
	if _, ok := res.Final(); ok {
		t.Fatal("expected no final snapshot")
	}

	empty := model.SimulationParams{StartingCash: 500}
	res = New().Run(series(t, "SPY", 1, 2, 3), empty)
	if len(res.Holdings) != 0 || len(res.Equity) != 3 || res.Equity[2].TotalWealth != 500 {
		t.Fatalf("unexpected result for empty universe: %+v", res)
	}
}

func multiTickerPanel(t *testing.T) *model.PricePanel {
	t.Helper()
	rows := make([]model.PriceRow, 0, 120)
	for i := 0; i < 120; i++ {
		prices := map[string]float64{
			"AAA": 100 + 15*math.Sin(float64(i)/6),
			"BBB": 50 + 8*math.Cos(float64(i)/4) + float64(i)/10,
		}
		if i%7 == 3 {
			delete(prices, "BBB")
		}
		rows = append(rows, model.PriceRow{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), Prices: prices})
	}
	return mustPanel(t, rows)
}

func multiTickerParams() model.SimulationParams {
	return model.SimulationParams{
		BuyUnitByTicker:     map[string]float64{"AAA": 2500, "BBB": 1500},
		StartingCash:        5000,
		AnnualCashYieldPct:  2,
		AnnualBorrowRatePct: 6,
		AllowLeverage:       true,
		BuyThresholdPct:     1,
		BuyWindowDays:       2,
		SellThresholdPct:    3,
		SellWindowDays:      3,
		SellMode:            model.SellOnDrop,
		FeeBps:              5,
		AllowReentry:        true,
	}
}

func TestRunInvariants(t *testing.T) {
	res := New().Run(multiTickerPanel(t), multiTickerParams())
	if len(res.Trades) == 0 {
		t.Fatal("expected the oscillating panel to trade")
	}

	for i, e := range res.Equity {
		if math.Abs(e.Cash+e.InvestedValue-e.TotalWealth) > 1e-6 {
			t.Fatalf("snapshot %d breaks cash+invested==wealth: %+v", i, e)
		}
	}

	shares := map[string]float64{}
	for i, tr := range res.Trades {
		if tr.SharesAfter < 0 {
			t.Fatalf("trade %d left negative shares: %+v", i, tr)
		}
		switch tr.Action {
		case model.ActionSell:
			if tr.SharesAfter != 0 {
				t.Fatalf("sell %d did not fully liquidate: %+v", i, tr)
			}
		case model.ActionBuy:
			if tr.SharesAfter < shares[tr.Ticker] {
				t.Fatalf("buy %d decreased shares: %+v", i, tr)
			}
		}
		shares[tr.Ticker] = tr.SharesAfter

		if i > 0 {
			prev := res.Trades[i-1]
			if tr.Time.Before(prev.Time) || (tr.Time.Equal(prev.Time) && tr.Ticker < prev.Ticker) {
				t.Fatalf("trade log out of order at %d", i)
			}
		}
	}

	for _, h := range res.Holdings {
		if math.Abs(h.EndingShares-shares[h.Ticker]) > 1e-12 {
			t.Fatalf("holding %s disagrees with trade log: %.6f vs %.6f", h.Ticker, h.EndingShares, shares[h.Ticker])
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	panel := multiTickerPanel(t)
	a := New().Run(panel, multiTickerParams())
	b := New().Run(panel, multiTickerParams())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical results for identical inputs")
	}

	var ca, cb bytes.Buffer
	if err := EncodeTradesCSV(&ca, a.Trades); err != nil {
		t.Fatal(err)
	}
	if err := EncodeTradesCSV(&cb, b.Trades); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ca.Bytes(), cb.Bytes()) {
		t.Fatal("expected byte-identical trade logs")
	}
}

func TestEncodeEquityCSV(t *testing.T) {
	res := New().Run(series(t, "SPY", 10, 10), baseParams("SPY", 0))
	var buf bytes.Buffer
	if err := EncodeEquityCSV(&buf, res.Equity); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "2024-01-01T00:00:00Z,10000.000000") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}
