package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"basket-backtest/internal/api/models"
	"basket-backtest/internal/config"
	"basket-backtest/internal/data"
	"basket-backtest/internal/model"
	"basket-backtest/internal/optimize"
)

// MaxGridCombinations bounds one request's sweep.
const MaxGridCombinations = 200000

// GridHandler handles parameter sweeps
type GridHandler struct {
	builder  *RunBuilder
	results  *data.Cache[*models.GridSearchResponse]
	workers  int
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewGridHandler(builder *RunBuilder, results *data.Cache[*models.GridSearchResponse], workers int, log *zap.Logger) *GridHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &GridHandler{
		builder: builder,
		results: results,
		workers: workers,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origins are policed by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type gridJob struct {
	base   model.SimulationParams
	panel  *model.PricePanel
	levers optimize.Levers
	limit  int
}

func (h *GridHandler) prepare(req models.GridSearchRequest) (*gridJob, error) {
	in, err := h.builder.Build(req.Preset, req.Simulation, req.Sector, req.Subsector, req.Panel)
	if err != nil {
		return nil, err
	}
	grid := config.DefaultGrid()
	if req.Grid != nil {
		grid = *req.Grid
	}
	if err := grid.Validate(); err != nil {
		return nil, badRequest("INVALID_GRID", err)
	}
	levers := grid.Levers()
	if n := levers.Combinations(); n > MaxGridCombinations {
		return nil, badRequest("GRID_TOO_LARGE", errors.New("grid exceeds the combination limit"))
	}
	return &gridJob{base: in.Params, panel: in.Panel, levers: levers, limit: req.Limit}, nil
}

func (h *GridHandler) run(ctx context.Context, job *gridJob, progress optimize.ProgressFunc) *models.GridSearchResponse {
	search := optimize.NewGridSearch(h.workers, h.log)
	search.Progress = progress
	rep := search.Run(ctx, job.panel, job.base, job.levers)

	resp := buildGridResponse(rep, job.limit)
	if h.results != nil && !rep.Cancelled {
		resp.ID = uuid.NewString()
		h.results.Set(resp.ID, resp)
	}
	return resp
}

// GridSearch handles POST /api/v1/grid-search
func (h *GridHandler) GridSearch(c *gin.Context) {
	var req models.GridSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	job, err := h.prepare(req)
	if err != nil {
		respondRequestError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.run(c.Request.Context(), job, nil))
}

// GetGridSearch handles GET /api/v1/grid-search/:id
func (h *GridHandler) GetGridSearch(c *gin.Context) {
	resp, ok := h.results.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "grid result not found or expired")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream handles GET /api/v1/grid-search/stream. The client sends the
// request as its first message, then receives progress frames and one
// result frame. Closing the socket cancels the sweep.
func (h *GridHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var req models.GridSearchRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeStreamError(conn, "INVALID_REQUEST", err.Error())
		return
	}
	job, err := h.prepare(req)
	if err != nil {
		code := "INTERNAL_ERROR"
		var re *requestError
		if errors.As(err, &re) {
			code = re.Code
		}
		h.writeStreamError(conn, code, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		// Any read failure means the client went away.
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	every := job.levers.Combinations() / 100
	if every == 0 {
		every = 1
	}
	progress := func(completed, total int) {
		if completed%every != 0 && completed != total {
			return
		}
		if err := conn.WriteJSON(models.StreamMessage{Type: "progress", Completed: completed, Total: total}); err != nil {
			cancel()
		}
	}

	resp := h.run(ctx, job, progress)
	if ctx.Err() != nil && resp.Status == "cancelled" {
		h.log.Info("grid stream closed by client", zap.Int("completed", resp.Completed), zap.Int("total", resp.Total))
		return
	}
	if err := conn.WriteJSON(models.StreamMessage{Type: "result", Result: resp}); err != nil {
		h.log.Warn("failed to write grid result", zap.Error(err))
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *GridHandler) writeStreamError(conn *websocket.Conn, code, message string) {
	_ = conn.WriteJSON(models.StreamMessage{
		Type:  "error",
		Error: &models.ErrorDetail{Code: code, Message: message},
	})
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseUnsupportedData, code))
}
