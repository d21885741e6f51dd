package config

import (
	"os"
	"path/filepath"
	"testing"

	"basket-backtest/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.yaml", `
simulation:
  tickers: [spy, qqq]
data:
  source: csv
  path: prices.csv
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.Simulation.ToModelParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.StartingCash != 100000 || p.BuyWindowDays != 5 || p.SellMode != model.SellOnDrop {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if !p.AllowLeverage || !p.AllowReentry {
		t.Fatalf("expected leverage and reentry on by default: %+v", p)
	}
	if p.BuyUnitByTicker["SPY"] != 1000 || p.BuyUnitByTicker["QQQ"] != 1000 {
		t.Fatalf("buy units = %v", p.BuyUnitByTicker)
	}
	l := c.Grid.Levers()
	if l.Combinations() != 5*4*5*4 {
		t.Fatalf("default grid has %d combinations", l.Combinations())
	}
}

func TestLoadPresetLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "preset.yaml", `
simulation:
  tickers: [SPY]
  allow_leverage: false
  fee_bps: 10
  sell_mode: gain
`)
	path := writeFile(t, dir, "run.yaml", `
preset_file: preset.yaml
simulation:
  fee_bps: 5
  buy_units:
    iwm: 250
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.Simulation.ToModelParams()
	if err != nil {
		t.Fatal(err)
	}
	if p.AllowLeverage {
		t.Fatal("preset allow_leverage=false was lost")
	}
	if !p.AllowReentry {
		t.Fatal("allow_reentry should keep its default")
	}
	if p.FeeBps != 5 || p.SellMode != model.SellOnGain {
		t.Fatalf("layering wrong: fee=%v mode=%v", p.FeeBps, p.SellMode)
	}
	if p.BuyUnitByTicker["SPY"] != 1000 || p.BuyUnitByTicker["IWM"] != 250 {
		t.Fatalf("buy units = %v", p.BuyUnitByTicker)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"no tickers": `
simulation:
  tickers: []
`,
		"bad sell mode": `
simulation:
  tickers: [SPY]
  sell_mode: sideways
`,
		"bad window range": `
simulation:
  tickers: [SPY]
grid:
  buy_window_days: {min: 0, max: 3, step: 1}
`,
		"start after end": `
simulation:
  tickers: [SPY]
  start: "2024-02-01"
  end: "2024-01-01"
`,
		"unknown source": `
simulation:
  tickers: [SPY]
data:
  source: parquet
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "run.yaml", body)
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGridDeploymentLever(t *testing.T) {
	g := DefaultGrid()
	g.Deployment = &Range{Min: 500, Max: 1500, Step: 500}
	l := g.Levers()
	if len(l.Deployments) != 3 || l.Combinations() != 5*4*5*4*3 {
		t.Fatalf("deployments = %v, combinations = %d", l.Deployments, l.Combinations())
	}
}

func TestMergeSimulation(t *testing.T) {
	base := DefaultSimulation()
	base.Tickers = []string{"SPY"}
	base.BuyUnits = map[string]float64{"SPY": 500}

	off, buy := false, 3.5
	out := MergeSimulation(base, SimulationOverride{
		BuyThresholdPct: &buy,
		AllowReentry:    &off,
		BuyUnits:        map[string]float64{"QQQ": 200},
	})
	if out.BuyThresholdPct != 3.5 || out.SellThresholdPct != 2 {
		t.Fatalf("thresholds = %v / %v", out.BuyThresholdPct, out.SellThresholdPct)
	}
	if *out.AllowReentry || !*out.AllowLeverage {
		t.Fatal("bool overlay wrong")
	}
	if out.BuyUnits["SPY"] != 500 || out.BuyUnits["QQQ"] != 200 {
		t.Fatalf("buy units = %v", out.BuyUnits)
	}
	if !*base.AllowReentry {
		t.Fatal("base was mutated")
	}
}

func TestMergeSimulationAppliesZero(t *testing.T) {
	base := DefaultSimulation()
	base.FeeBps = 10
	zero, days := 0.0, 1
	out := MergeSimulation(base, SimulationOverride{
		StartingCash:        &zero,
		AnnualCashYieldPct:  &zero,
		AnnualBorrowRatePct: &zero,
		BuyThresholdPct:     &zero,
		SellThresholdPct:    &zero,
		FeeBps:              &zero,
		BuyWindowDays:       &days,
	})
	if out.StartingCash != 0 || out.AnnualCashYieldPct != 0 || out.AnnualBorrowRatePct != 0 {
		t.Fatalf("cash levers not zeroed: %+v", out)
	}
	if out.BuyThresholdPct != 0 || out.SellThresholdPct != 0 || out.FeeBps != 0 || out.BuyWindowDays != 1 {
		t.Fatalf("strategy levers not applied: %+v", out)
	}
	if out.SellWindowDays != base.SellWindowDays || out.BuyUnitUSD != base.BuyUnitUSD {
		t.Fatal("unset fields changed")
	}
	if _, err := out.ToModelParams(); err != nil {
		t.Fatalf("zero levers rejected: %v", err)
	}
}

func TestPeriod(t *testing.T) {
	start, end, err := SimulationConfig{Start: "2024-01-02"}.Period()
	if err != nil {
		t.Fatal(err)
	}
	if start.Day() != 2 || !end.IsZero() {
		t.Fatalf("start=%v end=%v", start, end)
	}
}

func TestLoadShippedExample(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", "basket.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.Simulation.ToModelParams()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.BuyUnitByTicker) != 5 || p.BuyUnitByTicker["NVDA"] != 500 || p.FeeBps != 5 {
		t.Fatalf("unexpected params: %+v", p)
	}
	if c.Data.ToSource().ResolveKind() != "csv" {
		t.Fatalf("source kind = %q", c.Data.ToSource().ResolveKind())
	}
	if _, err := os.Stat(c.Data.Path); err != nil {
		t.Fatalf("data path %q not resolved against the config dir: %v", c.Data.Path, err)
	}
}
