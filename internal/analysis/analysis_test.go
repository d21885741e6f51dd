package analysis

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"basket-backtest/internal/backtest"
	"basket-backtest/internal/model"
)

func TestMaxDrawdownPct(t *testing.T) {
	dd, ok := MaxDrawdownPct([]float64{100, 120, 90, 130, 117})
	if !ok || math.Abs(dd+25) > 1e-9 {
		t.Fatalf("expected -25%% drawdown, got %.6f ok=%v", dd, ok)
	}
	if dd, ok := MaxDrawdownPct([]float64{1, 2, 3}); !ok || dd != 0 {
		t.Fatalf("expected 0 drawdown for a rising curve, got %.6f", dd)
	}
	if _, ok := MaxDrawdownPct([]float64{math.NaN()}); ok {
		t.Fatal("expected undefined drawdown without numeric points")
	}
	if _, ok := MaxDrawdownPct(nil); ok {
		t.Fatal("expected undefined drawdown for an empty curve")
	}
	if dd, ok := MaxDrawdownPct([]float64{0, 0, -5, 10, 8}); !ok || !math.IsInf(dd, -1) {
		t.Fatalf("expected -Inf drawdown below a zero peak, got %v ok=%v", dd, ok)
	}
	if dd, ok := MaxDrawdownPct([]float64{0, 0, 10, 8}); !ok || math.Abs(dd+20) > 1e-9 {
		t.Fatalf("expected zero points at a zero peak to be ignored, got %v", dd)
	}
}

func TestSummarize(t *testing.T) {
	res := &backtest.Result{
		Trades: []backtest.Trade{{}, {}},
		Equity: []backtest.EquitySnapshot{
			{Cash: 1000, TotalWealth: 1000},
			{Cash: 200, InvestedValue: 700, TotalWealth: 900},
			{Cash: 200, InvestedValue: 1000, TotalWealth: 1200},
		},
	}
	s := Summarize(res, 1000)
	if s.FinalTotalWealth != 1200 || s.PnL != 200 || s.TradeCount != 2 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if math.Abs(s.TotalReturnPct-20) > 1e-9 || math.Abs(s.MaxDrawdownPct+10) > 1e-9 {
		t.Fatalf("unexpected return/drawdown %+v", s)
	}

	empty := Summarize(&backtest.Result{}, 0)
	if empty.FinalTotalWealth != 0 || Defined(empty.TotalReturnPct) || Defined(empty.MaxDrawdownPct) {
		t.Fatalf("expected neutral summary with undefined metrics, got %+v", empty)
	}
}

func TestRankGridResults(t *testing.T) {
	nan := math.NaN()
	rows := []GridResult{
		{BuyWindowDays: 1, Summary: Summary{FinalTotalWealth: 100, MaxDrawdownPct: -5, TradeCount: 3}},
		{BuyWindowDays: 2, Summary: Summary{FinalTotalWealth: 120, MaxDrawdownPct: -30, TradeCount: 1}},
		{BuyWindowDays: 3, Summary: Summary{FinalTotalWealth: 100, MaxDrawdownPct: -2, TradeCount: 1}},
		{BuyWindowDays: 4, Summary: Summary{FinalTotalWealth: nan, MaxDrawdownPct: 0, TradeCount: 9}},
		{BuyWindowDays: 5, Summary: Summary{FinalTotalWealth: 100, MaxDrawdownPct: -2, TradeCount: 4}},
		{BuyWindowDays: 6, Summary: Summary{FinalTotalWealth: 100, MaxDrawdownPct: nan, TradeCount: 9}},
	}
	RankGridResults(rows)

	want := []int{2, 5, 3, 1, 6, 4}
	for i, w := range want {
		if rows[i].BuyWindowDays != w {
			got := make([]int, len(rows))
			for j, r := range rows {
				got[j] = r.BuyWindowDays
			}
			t.Fatalf("unexpected order %v, want %v", got, want)
		}
	}
}

func TestTopPerformers(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }
	panel, err := model.NewPricePanel([]model.PriceRow{
		{Time: d(1), Prices: map[string]float64{"AAA": 100, "BBB": 50, "CCC": 10}},
		{Time: d(2), Prices: map[string]float64{"AAA": 101, "BBB": 40}},
		{Time: d(8), Prices: map[string]float64{"AAA": 110, "BBB": 60, "DDD": 5}},
		{Time: d(9), Prices: map[string]float64{"AAA": 120, "BBB": 48}},
	})
	if err != nil {
		t.Fatal(err)
	}

	top := TopPerformers(panel, nil, 7, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %+v", top)
	}
	if top[0].Ticker != "BBB" || math.Abs(top[0].ReturnPct-20) > 1e-9 {
		t.Fatalf("expected BBB +20%% first, got %+v", top[0])
	}
	if top[1].Ticker != "AAA" || math.Abs(top[1].ReturnPct-18.811881) > 1e-5 {
		t.Fatalf("expected AAA second, got %+v", top[1])
	}

	all := TopPerformers(panel, []string{"CCC", "DDD"}, 7, 0)
	if len(all) != 0 {
		t.Fatalf("expected tickers without a start close to be dropped, got %+v", all)
	}
}

func TestTopPerformersZeroStartCloseRanksLast(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }
	panel, err := model.NewPricePanel([]model.PriceRow{
		{Time: d(1), Prices: map[string]float64{"AAA": 100, "BBB": 50, "ZZZ": 0}},
		{Time: d(9), Prices: map[string]float64{"AAA": 90, "BBB": 55, "ZZZ": 4}},
	})
	if err != nil {
		t.Fatal(err)
	}

	top := TopPerformers(panel, nil, 7, 0)
	if len(top) != 3 {
		t.Fatalf("expected 3 rows, got %+v", top)
	}
	if top[0].Ticker != "BBB" || top[1].Ticker != "AAA" {
		t.Fatalf("defined returns out of order: %+v", top)
	}
	if top[2].Ticker != "ZZZ" || !math.IsNaN(top[2].ReturnPct) || top[2].LatestClose != 4 {
		t.Fatalf("expected ZZZ last with undefined return, got %+v", top[2])
	}
}

func TestEncodeGridCSVBlanksUndefined(t *testing.T) {
	rows := []GridResult{{BuyWindowDays: 3, SellWindowDays: 4, Summary: Summary{TotalReturnPct: math.NaN(), MaxDrawdownPct: math.NaN()}}}
	var buf bytes.Buffer
	if err := EncodeGridCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",,,0") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestEncodeGridCSVWritesUnboundedDrawdown(t *testing.T) {
	rows := []GridResult{{BuyWindowDays: 3, SellWindowDays: 4, Summary: Summary{TotalReturnPct: math.NaN(), MaxDrawdownPct: math.Inf(-1), TradeCount: 2}}}
	var buf bytes.Buffer
	if err := EncodeGridCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",,-inf,2") {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}
