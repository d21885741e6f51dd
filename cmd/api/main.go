package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"basket-backtest/internal/api"
	"basket-backtest/internal/api/handlers"
	"basket-backtest/internal/api/models"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/config"
	"basket-backtest/internal/data"
	"basket-backtest/internal/logging"
	"basket-backtest/internal/model"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("API_ENV")
	log, err := newLogger(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	panel, grid := loadPanel(ctx, log)
	universe := loadUniverse(log)

	ttl := time.Hour
	if s := os.Getenv("PANEL_CACHE_TTL"); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			ttl = parsed
		} else {
			log.Warn("ignoring invalid PANEL_CACHE_TTL", zap.String("value", s), zap.Error(err))
		}
	}
	runs := data.NewCache[*backtest.Result](ttl)
	grids := data.NewCache[*models.GridSearchResponse](ttl)
	go runs.Janitor(ctx, 5*time.Minute)
	go grids.Janitor(ctx, 5*time.Minute)

	workers := grid.Workers
	if s := os.Getenv("GRID_WORKERS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			workers = n
		}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var origins []string
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	router := api.NewRouter(api.Options{
		Panel:       panel,
		Universe:    universe,
		PresetDir:   handlers.DefaultPresetDir(),
		Workers:     workers,
		CORSOrigins: origins,
		Runs:        runs,
		Grids:       grids,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting API server", zap.String("addr", srv.Addr), zap.Int("workers", workers))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("failed to start server", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(env string) (*zap.Logger, error) {
	return logging.New(env, os.Getenv("LOG_LEVEL"))
}

// loadPanel loads the server-wide panel from CONFIG_FILE's data section.
// Without one the server still starts and requests must carry a panel.
func loadPanel(ctx context.Context, log *zap.Logger) (*model.PricePanel, config.GridConfig) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		log.Info("CONFIG_FILE not set; requests must include a panel")
		return nil, config.DefaultGrid()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("failed to load config", zap.String("path", path), zap.Error(err))
	}
	params, err := cfg.Simulation.ToModelParams()
	if err != nil {
		log.Fatal("invalid simulation config", zap.Error(err))
	}
	start, end, err := cfg.Simulation.Period()
	if err != nil {
		log.Fatal("invalid simulation period", zap.Error(err))
	}

	src := cfg.Data.ToSource()
	if src.DSN == "" {
		src.DSN = os.Getenv("DATABASE_URL")
	}
	if src.ResolveKind() == "" {
		log.Info("config has no data source; requests must include a panel")
		return nil, cfg.Grid
	}
	panel, err := data.LoadPanel(ctx, src, params.Tickers(), start, end, log)
	if err != nil {
		log.Fatal("failed to load panel", zap.Error(err))
	}
	return panel, cfg.Grid
}

func loadUniverse(log *zap.Logger) *data.Universe {
	path := data.DefaultUniversePath()
	u, err := data.LoadUniverse(path)
	if err != nil {
		log.Info("universe not loaded", zap.String("path", path), zap.Error(err))
		return nil
	}
	log.Info("universe loaded", zap.String("path", path), zap.Int("instruments", len(u.Instruments)))
	return u
}
