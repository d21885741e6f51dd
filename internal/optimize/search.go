package optimize

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"basket-backtest/internal/analysis"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/model"
	"basket-backtest/internal/strategy"
)

// ProgressFunc is called after each finished combination. Calls are made
// from a single goroutine, in completion order.
type ProgressFunc func(completed, total int)

// GridSearch evaluates the engine over every lever combination.
type GridSearch struct {
	Engine   *backtest.Engine
	Workers  int
	Progress ProgressFunc
	Log      *zap.Logger
	// NewStrategy builds the decision rule for one combination.
	// Nil means the threshold rule.
	NewStrategy func(model.SimulationParams) strategy.Strategy
}

func NewGridSearch(workers int, log *zap.Logger) *GridSearch {
	if log == nil {
		log = zap.NewNop()
	}
	return &GridSearch{Engine: backtest.New(), Workers: workers, Log: log}
}

// Report is the ranked outcome of a sweep.
type Report struct {
	Rows      []analysis.GridResult
	Total     int
	Completed int
	Cancelled bool
	Duration  time.Duration
}

type indexedResult struct {
	idx int
	row analysis.GridResult
}

// Run sweeps levers over panel, starting every combination from base.
//
// Combinations are spread across worker goroutines; the panel is shared
// read-only. Cancelling ctx stops dispatching new combinations and the report
// holds the rows finished so far, still ranked. A combination that panics
// contributes a degraded row instead of aborting the sweep.
func (g *GridSearch) Run(ctx context.Context, panel *model.PricePanel, base model.SimulationParams, levers Levers) *Report {
	start := time.Now()
	log := g.logger()
	total := levers.Combinations()
	rep := &Report{Total: total, Rows: []analysis.GridResult{}}
	if total == 0 {
		return rep
	}

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	log.Info("starting grid search",
		zap.Int("combinations", total),
		zap.Int("workers", workers),
		zap.Int("timestamps", panel.Len()),
	)

	jobs := make(chan int)
	results := make(chan indexedResult, workers)

	go func() {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- indexedResult{idx: i, row: g.evaluate(panel, base, levers.At(i))}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	rows := make([]analysis.GridResult, total)
	done := make([]bool, total)
	step := total / 10
	if step == 0 {
		step = 1
	}
	for r := range results {
		rows[r.idx] = r.row
		done[r.idx] = true
		rep.Completed++
		if g.Progress != nil {
			g.Progress(rep.Completed, total)
		}
		if rep.Completed%step == 0 {
			log.Debug("grid search progress",
				zap.Int("completed", rep.Completed),
				zap.Int("total", total),
			)
		}
	}

	// Index order first so that full ties rank by enumeration order.
	for i := range rows {
		if done[i] {
			rep.Rows = append(rep.Rows, rows[i])
		}
	}
	analysis.RankGridResults(rep.Rows)

	rep.Cancelled = rep.Completed < total
	rep.Duration = time.Since(start)

	if rep.Cancelled {
		log.Warn("grid search cancelled",
			zap.Int("completed", rep.Completed),
			zap.Int("total", total),
			zap.Error(ctx.Err()),
		)
	} else {
		fields := []zap.Field{zap.Int("combinations", total), zap.Duration("duration", rep.Duration)}
		if len(rep.Rows) > 0 {
			fields = append(fields, zap.Float64("best_total_wealth", rep.Rows[0].FinalTotalWealth))
		}
		log.Info("grid search complete", fields...)
	}
	return rep
}

// ParamsFor applies a combination on top of base.
func ParamsFor(base model.SimulationParams, c Combo) model.SimulationParams {
	p := base
	p.BuyThresholdPct = c.BuyThresholdPct
	p.BuyWindowDays = c.BuyWindowDays
	p.SellThresholdPct = c.SellThresholdPct
	p.SellWindowDays = c.SellWindowDays
	if c.HasDeployment {
		p = p.WithUniformBuyUnit(c.DeploymentUSD)
	}
	return p
}

func (g *GridSearch) evaluate(panel *model.PricePanel, base model.SimulationParams, c Combo) (row analysis.GridResult) {
	row = analysis.GridResult{
		BuyThresholdPct:  c.BuyThresholdPct,
		BuyWindowDays:    c.BuyWindowDays,
		SellThresholdPct: c.SellThresholdPct,
		SellWindowDays:   c.SellWindowDays,
		DeploymentUSD:    c.DeploymentUSD,
		HasDeployment:    c.HasDeployment,
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger().Error("grid combination failed",
				zap.Float64("buy_threshold_pct", c.BuyThresholdPct),
				zap.Int("buy_window_days", c.BuyWindowDays),
				zap.Float64("sell_threshold_pct", c.SellThresholdPct),
				zap.Int("sell_window_days", c.SellWindowDays),
				zap.String("panic", fmt.Sprint(r)),
			)
			row.Summary = neutralSummary(base.StartingCash)
			row.Degraded = true
		}
	}()

	engine := g.Engine
	if engine == nil {
		engine = backtest.New()
	}
	params := ParamsFor(base, c)
	var strat strategy.Strategy
	if g.NewStrategy != nil {
		strat = g.NewStrategy(params)
	} else {
		strat = strategy.NewThreshold(strategy.ThresholdParamsFrom(params))
	}
	res := engine.RunStrategy(panel, params, strat)
	row.Summary = analysis.Summarize(res, base.StartingCash)
	return row
}

func neutralSummary(startingCash float64) analysis.Summary {
	s := analysis.Summary{
		StartingCash:     startingCash,
		FinalCash:        startingCash,
		FinalTotalWealth: startingCash,
		TotalReturnPct:   math.NaN(),
		MaxDrawdownPct:   math.NaN(),
	}
	if startingCash > 0 {
		s.TotalReturnPct = 0
	}
	return s
}

func (g *GridSearch) logger() *zap.Logger {
	if g.Log == nil {
		return zap.NewNop()
	}
	return g.Log
}
