package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"basket-backtest/internal/api/models"
	"basket-backtest/internal/config"
	"basket-backtest/internal/data"
	"basket-backtest/internal/model"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// requestError carries the HTTP status and error code for a bad request.
type requestError struct {
	Status int
	Code   string
	Err    error
}

func (e *requestError) Error() string { return e.Err.Error() }
func (e *requestError) Unwrap() error { return e.Err }

func badRequest(code string, err error) error {
	return &requestError{Status: http.StatusBadRequest, Code: code, Err: err}
}

func respondRequestError(c *gin.Context, err error) {
	var re *requestError
	if errors.As(err, &re) {
		respondError(c, re.Status, re.Code, re.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

// RunBuilder turns request fields into engine inputs: preset, overrides,
// ticker selection and the panel to run on.
type RunBuilder struct {
	// Panel is the server-wide panel. Requests may supply their own instead.
	Panel     *model.PricePanel
	Universe  *data.Universe
	PresetDir string
}

// RunInput is a resolved request.
type RunInput struct {
	Simulation config.SimulationConfig
	Params     model.SimulationParams
	Panel      *model.PricePanel
}

func (b *RunBuilder) Build(preset string, override config.SimulationOverride, sector, subsector string, inline *data.PanelFile) (*RunInput, error) {
	sim := config.DefaultSimulation()
	if preset != "" {
		path, err := b.presetPath(preset)
		if err != nil {
			return nil, err
		}
		loaded, err := config.LoadPreset(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &requestError{Status: http.StatusNotFound, Code: "PRESET_NOT_FOUND", Err: fmt.Errorf("preset %q not found", preset)}
			}
			return nil, badRequest("INVALID_PRESET", err)
		}
		sim = loaded
	}
	sim = config.MergeSimulation(sim, override)

	panel := b.Panel
	if inline != nil {
		p, err := inline.Panel()
		if err != nil {
			return nil, badRequest("INVALID_PANEL", err)
		}
		panel = p
	}
	if panel == nil {
		return nil, badRequest("NO_PANEL", errors.New("no price panel is loaded; include one in the request"))
	}

	if len(sim.Tickers) == 0 && len(sim.BuyUnits) == 0 {
		switch {
		case sector != "" || subsector != "":
			if b.Universe == nil {
				return nil, badRequest("NO_UNIVERSE", errors.New("sector selection requires a universe file"))
			}
			sim.Tickers = b.Universe.ResolveTickers(sector, subsector)
		default:
			sim.Tickers = panel.Tickers()
		}
	}

	start, end, err := sim.Period()
	if err != nil {
		return nil, badRequest("INVALID_CONFIG", err)
	}
	params, err := sim.ToModelParams()
	if err != nil {
		return nil, badRequest("INVALID_CONFIG", err)
	}
	return &RunInput{Simulation: sim, Params: params, Panel: panel.Between(start, end)}, nil
}

func (b *RunBuilder) presetPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", badRequest("INVALID_PRESET", fmt.Errorf("invalid preset id %q", id))
	}
	return filepath.Join(b.PresetDir, id+".yaml"), nil
}
