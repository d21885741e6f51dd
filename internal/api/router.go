package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basket-backtest/internal/api/handlers"
	"basket-backtest/internal/api/middleware"
	"basket-backtest/internal/api/models"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/data"
	"basket-backtest/internal/model"
)

// Options carries everything the router serves from.
type Options struct {
	Panel       *model.PricePanel
	Universe    *data.Universe
	PresetDir   string
	Workers     int
	CORSOrigins []string
	Runs        *data.Cache[*backtest.Result]
	Grids       *data.Cache[*models.GridSearchResponse]
	Log         *zap.Logger
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	builder := &handlers.RunBuilder{
		Panel:     opts.Panel,
		Universe:  opts.Universe,
		PresetDir: opts.PresetDir,
	}
	simulationHandler := handlers.NewSimulationHandler(builder, opts.Runs, log)
	gridHandler := handlers.NewGridHandler(builder, opts.Grids, opts.Workers, log)
	presetHandler := handlers.NewPresetHandler(opts.PresetDir, log)
	universeHandler := handlers.NewUniverseHandler(opts.Universe)
	topHandler := handlers.NewTopHandler(opts.Panel, opts.Universe)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"panel_loaded": opts.Panel != nil,
			"timestamps":   opts.Panel.Len(),
			"tickers":      len(opts.Panel.Tickers()),
		})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulationHandler.Simulate)
		api.GET("/simulate/:id/trades", simulationHandler.GetTrades)

		api.POST("/grid-search", gridHandler.GridSearch)
		api.GET("/grid-search/stream", gridHandler.Stream)
		api.GET("/grid-search/:id", gridHandler.GetGridSearch)

		api.GET("/levers", handlers.ListLevers)
		api.GET("/presets", presetHandler.ListPresets)

		api.GET("/universe", universeHandler.GetUniverse)
		api.GET("/universe/tickers", universeHandler.ListTickers)

		api.GET("/top", topHandler.TopPerformers)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
			})
			return
		}
		c.Status(http.StatusNotFound)
	})

	return router
}
