package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basket-backtest/internal/analysis"
	"basket-backtest/internal/api/models"
	"basket-backtest/internal/data"
	"basket-backtest/internal/model"
)

// TopHandler ranks tickers of the loaded panel by trailing return
type TopHandler struct {
	panel    *model.PricePanel
	universe *data.Universe
}

func NewTopHandler(panel *model.PricePanel, u *data.Universe) *TopHandler {
	return &TopHandler{panel: panel, universe: u}
}

// TopPerformers handles GET /api/v1/top?lookback=7&n=5
func (h *TopHandler) TopPerformers(c *gin.Context) {
	var req models.TopRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Lookback == 0 {
		req.Lookback = 7
	}
	if req.N == 0 {
		req.N = 5
	}
	if req.Lookback < 0 || req.N < 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "lookback and n must be positive")
		return
	}
	if h.panel == nil {
		respondError(c, http.StatusServiceUnavailable, "NO_PANEL", "no price panel is loaded")
		return
	}

	var tickers []string
	if req.Sector != "" || req.Subsector != "" {
		if h.universe == nil {
			respondError(c, http.StatusBadRequest, "NO_UNIVERSE", "sector selection requires a universe file")
			return
		}
		tickers = h.universe.ResolveTickers(req.Sector, req.Subsector)
		if len(tickers) == 0 {
			c.JSON(http.StatusOK, gin.H{"performers": []models.PerformerRow{}})
			return
		}
	}

	perf := analysis.TopPerformers(h.panel, tickers, req.Lookback, req.N)
	rows := make([]models.PerformerRow, 0, len(perf))
	for i, p := range perf {
		rows = append(rows, models.PerformerRow{
			Rank:        i + 1,
			Ticker:      p.Ticker,
			StartTime:   p.StartTime,
			LatestTime:  p.LatestTime,
			StartClose:  p.StartClose,
			LatestClose: p.LatestClose,
			ReturnPct:   optFloat(p.ReturnPct),
		})
	}
	c.JSON(http.StatusOK, gin.H{"lookback_days": req.Lookback, "performers": rows})
}
