package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basket-backtest/internal/api/models"
	"basket-backtest/internal/data"
)

// UniverseHandler serves the sector classification
type UniverseHandler struct {
	universe *data.Universe
}

func NewUniverseHandler(u *data.Universe) *UniverseHandler {
	return &UniverseHandler{universe: u}
}

// GetUniverse handles GET /api/v1/universe
func (h *UniverseHandler) GetUniverse(c *gin.Context) {
	if h.universe == nil {
		respondError(c, http.StatusNotFound, "NO_UNIVERSE", "no universe file is loaded")
		return
	}
	resp := models.UniverseResponse{
		Sectors:     h.universe.Sectors(),
		Subsectors:  h.universe.Subsectors(c.DefaultQuery("sector", data.AllFilter)),
		Instruments: make([]models.InstrumentInfo, 0, len(h.universe.Instruments)),
	}
	for _, in := range h.universe.Instruments {
		resp.Instruments = append(resp.Instruments, models.InstrumentInfo{
			Ticker:    in.Ticker,
			Name:      in.Name,
			Sector:    in.Sector,
			Subsector: in.Subsector,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// ListTickers handles GET /api/v1/universe/tickers?sector=&subsector=
func (h *UniverseHandler) ListTickers(c *gin.Context) {
	if h.universe == nil {
		respondError(c, http.StatusNotFound, "NO_UNIVERSE", "no universe file is loaded")
		return
	}
	sector := c.DefaultQuery("sector", data.AllFilter)
	subsector := c.DefaultQuery("subsector", data.AllFilter)
	c.JSON(http.StatusOK, gin.H{
		"sector":    sector,
		"subsector": subsector,
		"tickers":   h.universe.ResolveTickers(sector, subsector),
	})
}
