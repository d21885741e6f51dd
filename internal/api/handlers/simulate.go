package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"basket-backtest/internal/analysis"
	"basket-backtest/internal/api/models"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/data"
)

// SimulationHandler handles single-run requests
type SimulationHandler struct {
	builder *RunBuilder
	engine  *backtest.Engine
	runs    *data.Cache[*backtest.Result]
	log     *zap.Logger
}

// NewSimulationHandler creates a new simulation handler. runs may be nil,
// in which case results are not retrievable by id.
func NewSimulationHandler(builder *RunBuilder, runs *data.Cache[*backtest.Result], log *zap.Logger) *SimulationHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SimulationHandler{builder: builder, engine: backtest.New(), runs: runs, log: log}
}

// Simulate handles POST /api/v1/simulate
func (h *SimulationHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	in, err := h.builder.Build(req.Preset, req.Simulation, req.Sector, req.Subsector, req.Panel)
	if err != nil {
		respondRequestError(c, err)
		return
	}

	res := h.engine.Run(in.Panel, in.Params)
	summary := analysis.Summarize(res, in.Params.StartingCash)

	resp := models.SimulateResponse{
		Status:  "completed",
		Summary: buildRunSummary(res, in.Panel, summary),
	}
	if h.runs != nil {
		resp.ID = uuid.NewString()
		h.runs.Set(resp.ID, res)
	}
	if req.Options.IncludeLedger {
		resp.Trades = convertTrades(res.Trades)
		resp.Equity = convertEquity(res.Equity)
		resp.Holdings = convertHoldings(res.Holdings)
	}

	h.log.Info("simulation completed",
		zap.String("id", resp.ID),
		zap.Int("tickers", len(in.Params.BuyUnitByTicker)),
		zap.Int("timestamps", in.Panel.Len()),
		zap.Int("trades", summary.TradeCount),
		zap.Float64("final_total_wealth", summary.FinalTotalWealth),
	)
	c.JSON(http.StatusOK, resp)
}

// GetTrades handles GET /api/v1/simulate/:id/trades
func (h *SimulationHandler) GetTrades(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a UUID")
		return
	}
	res, ok := h.runs.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "simulation result not found or expired")
		return
	}
	c.JSON(http.StatusOK, models.TradesResponse{ID: id, Trades: convertTrades(res.Trades)})
}
