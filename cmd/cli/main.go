package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"basket-backtest/internal/analysis"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/config"
	"basket-backtest/internal/data"
	"basket-backtest/internal/logging"
	"basket-backtest/internal/model"
	"basket-backtest/internal/optimize"
)

var printer = message.NewPrinter(language.English)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "grid":
		cmdGrid(os.Args[2:])
	case "top":
		cmdTop(os.Args[2:])
	case "universe":
		cmdUniverse(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/basket.yaml [--data prices.csv] --out-dir results")
	fmt.Println("  cli grid --config examples/basket.yaml [--data prices.csv] --out results/grid.csv --top 10")
	fmt.Println("  cli top --data prices.csv --lookback 7 --n 5")
	fmt.Println("  cli universe --file data/universe.json --sector All --subsector All")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data overrides the config's data section; .csv and .json are detected by extension")
	fmt.Println("  - database sources read DATABASE_URL when data.dsn is empty")
	fmt.Println("  - Ctrl-C during grid stops the sweep and still writes the ranked partial results")
}

func newLogger() *zap.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	log, err := logging.New(os.Getenv("API_ENV"), level)
	if err != nil {
		panic(err)
	}
	return log
}

// loadInputs reads the config and the panel it points at.
func loadInputs(ctx context.Context, cfgPath, dataPath string, log *zap.Logger) (*config.Config, model.SimulationParams, *model.PricePanel) {
	if cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	params, err := cfg.Simulation.ToModelParams()
	if err != nil {
		panic(err)
	}
	start, end, err := cfg.Simulation.Period()
	if err != nil {
		panic(err)
	}

	src := cfg.Data.ToSource()
	if dataPath != "" {
		src = data.Source{Path: dataPath}
	}
	if src.DSN == "" {
		src.DSN = os.Getenv("DATABASE_URL")
	}
	panel, err := data.LoadPanel(ctx, src, params.Tickers(), start, end, log)
	if err != nil {
		panic(err)
	}
	return cfg, params, panel
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dataPath := fs.String("data", "", "Optional: panel file (.csv or .json) overriding the config")
	outDir := fs.String("out-dir", "results", "Directory for trades.csv, equity.csv and holdings.csv")
	_ = fs.Parse(args)

	log := newLogger()
	defer log.Sync()

	_, params, panel := loadInputs(context.Background(), *cfgPath, *dataPath, log)

	res := backtest.New().Run(panel, params)
	summary := analysis.Summarize(res, params.StartingCash)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	if err := backtest.WriteTradesCSV(filepath.Join(*outDir, "trades.csv"), res.Trades); err != nil {
		panic(err)
	}
	if err := backtest.WriteEquityCSV(filepath.Join(*outDir, "equity.csv"), res.Equity); err != nil {
		panic(err)
	}
	if err := backtest.WriteHoldingsCSV(filepath.Join(*outDir, "holdings.csv"), res.Holdings); err != nil {
		panic(err)
	}

	fmt.Printf("Simulated %d tickers over %d timestamps; wrote results to %s\n", len(params.BuyUnitByTicker), panel.Len(), *outDir)
	printSummary(summary)
	fmt.Println()
	fmt.Printf("%-8s %12s %12s %14s %6s %6s\n", "ticker", "last", "shares", "value", "buys", "sells")
	for _, h := range res.Holdings {
		printer.Printf("%-8s %12.2f %12.4f %14.2f %6d %6d\n", h.Ticker, h.LastPrice, h.EndingShares, h.PositionValue, h.Buys, h.Sells)
	}
}

func printSummary(s analysis.Summary) {
	printer.Printf("Starting cash      $%.2f\n", s.StartingCash)
	printer.Printf("Final cash         $%.2f\n", s.FinalCash)
	printer.Printf("Final invested     $%.2f\n", s.FinalInvested)
	printer.Printf("Final total wealth $%.2f\n", s.FinalTotalWealth)
	printer.Printf("PnL                $%.2f\n", s.PnL)
	fmt.Printf("Total return       %s\n", fmtPct(s.TotalReturnPct))
	fmt.Printf("Max drawdown       %s\n", fmtPct(s.MaxDrawdownPct))
	fmt.Printf("Trades             %d\n", s.TradeCount)
}

func fmtPct(x float64) string {
	if !analysis.Defined(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", x)
}

func cmdGrid(args []string) {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dataPath := fs.String("data", "", "Optional: panel file (.csv or .json) overriding the config")
	outPath := fs.String("out", "results/grid.csv", "Output CSV path")
	top := fs.Int("top", 10, "Rows to print (0=none)")
	workers := fs.Int("workers", 0, "Worker goroutines (0=config value or NumCPU)")
	_ = fs.Parse(args)

	log := newLogger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, params, panel := loadInputs(ctx, *cfgPath, *dataPath, log)
	levers := cfg.Grid.Levers()

	search := optimize.NewGridSearch(cfg.Grid.Workers, log)
	if *workers > 0 {
		search.Workers = *workers
	}
	lastPrint := time.Time{}
	search.Progress = func(completed, total int) {
		if completed == total || time.Since(lastPrint) > 200*time.Millisecond {
			lastPrint = time.Now()
			fmt.Fprintf(os.Stderr, "\r%d/%d combinations", completed, total)
		}
	}

	rep := search.Run(ctx, panel, params, levers)
	fmt.Fprintln(os.Stderr)

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := analysis.WriteGridCSV(*outPath, rep.Rows); err != nil {
		panic(err)
	}

	status := "completed"
	if rep.Cancelled {
		status = "cancelled"
	}
	fmt.Printf("Grid %s: %d/%d combinations in %s; wrote %s\n", status, rep.Completed, rep.Total, rep.Duration.Round(time.Millisecond), *outPath)

	n := *top
	if n > len(rep.Rows) {
		n = len(rep.Rows)
	}
	if n <= 0 {
		return
	}
	fmt.Printf("%-4s %8s %6s %8s %6s %16s %10s %10s %7s\n", "rank", "buy_th", "buy_w", "sell_th", "sell_w", "final_wealth", "return", "drawdown", "trades")
	for i, r := range rep.Rows[:n] {
		printer.Printf("%-4d %8.2f %6d %8.2f %6d %16.2f %10s %10s %7d\n",
			i+1,
			r.BuyThresholdPct,
			r.BuyWindowDays,
			r.SellThresholdPct,
			r.SellWindowDays,
			r.FinalTotalWealth,
			fmtPct(r.TotalReturnPct),
			fmtPct(r.MaxDrawdownPct),
			r.TradeCount,
		)
	}
}

func cmdTop(args []string) {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	dataPath := fs.String("data", "", "Panel file (.csv or .json)")
	lookback := fs.Int("lookback", 7, "Lookback in calendar days")
	n := fs.Int("n", 5, "Number of tickers to show")
	universePath := fs.String("universe", "", "Optional: universe file for --sector/--subsector")
	sector := fs.String("sector", "", "Optional: sector filter (needs --universe)")
	subsector := fs.String("subsector", "", "Optional: subsector filter (needs --universe)")
	_ = fs.Parse(args)

	if *dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}

	log := newLogger()
	defer log.Sync()

	panel, err := data.LoadPanel(context.Background(), data.Source{Path: *dataPath}, nil, time.Time{}, time.Time{}, log)
	if err != nil {
		panic(err)
	}

	var tickers []string
	if *sector != "" || *subsector != "" {
		if *universePath == "" {
			*universePath = data.DefaultUniversePath()
		}
		u, err := data.LoadUniverse(*universePath)
		if err != nil {
			panic(err)
		}
		tickers = u.ResolveTickers(*sector, *subsector)
		if len(tickers) == 0 {
			fmt.Println("no tickers match the filter")
			return
		}
	}

	perf := analysis.TopPerformers(panel, tickers, *lookback, *n)
	fmt.Printf("%-4s %-8s %-10s %12s %-10s %12s %9s\n", "rank", "ticker", "start", "start_close", "latest", "latest_close", "return")
	for i, p := range perf {
		printer.Printf("%-4d %-8s %-10s %12.2f %-10s %12.2f %9s\n",
			i+1,
			p.Ticker,
			p.StartTime.Format("2006-01-02"),
			p.StartClose,
			p.LatestTime.Format("2006-01-02"),
			p.LatestClose,
			fmtPct(p.ReturnPct),
		)
	}
}

func cmdUniverse(args []string) {
	fs := flag.NewFlagSet("universe", flag.ExitOnError)
	path := fs.String("file", "", "Universe JSON (default: UNIVERSE_FILE or ./data/universe.json)")
	sector := fs.String("sector", data.AllFilter, "Sector or All")
	subsector := fs.String("subsector", data.AllFilter, "Subsector or All")
	_ = fs.Parse(args)

	if *path == "" {
		*path = data.DefaultUniversePath()
	}
	u, err := data.LoadUniverse(*path)
	if err != nil {
		panic(err)
	}

	fmt.Printf("sectors: %v\n", u.Sectors())
	fmt.Printf("subsectors of %s: %v\n", *sector, u.Subsectors(*sector))
	tickers := u.ResolveTickers(*sector, *subsector)
	fmt.Printf("%d tickers in %s / %s:\n", len(tickers), *sector, *subsector)
	for _, t := range tickers {
		fmt.Println(t)
	}
}
