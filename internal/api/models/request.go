package models

import (
	"basket-backtest/internal/config"
	"basket-backtest/internal/data"
)

// SimulateRequest represents the request body for one simulation run
type SimulateRequest struct {
	// Preset is a file name (without .yaml) under PRESET_DIR used as the base.
	Preset string `json:"preset,omitempty"`
	// Simulation fields that are present replace the preset, zero included.
	Simulation config.SimulationOverride `json:"simulation"`
	// Sector and Subsector pick tickers from the universe when Simulation names none.
	Sector    string          `json:"sector,omitempty"`
	Subsector string          `json:"subsector,omitempty"`
	Panel     *data.PanelFile `json:"panel,omitempty"`
	Options   SimulateOptions `json:"options,omitempty"`
}

// SimulateOptions contains optional response parameters
type SimulateOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
}

// GridSearchRequest represents the request body (or first websocket message) of a sweep
type GridSearchRequest struct {
	Preset     string                    `json:"preset,omitempty"`
	Simulation config.SimulationOverride `json:"simulation"`
	Sector     string                    `json:"sector,omitempty"`
	Subsector  string                    `json:"subsector,omitempty"`
	Grid       *config.GridConfig        `json:"grid,omitempty"`
	Panel      *data.PanelFile           `json:"panel,omitempty"`
	Limit      int                       `json:"limit,omitempty"` // 0 = all rows
}

// TopRequest represents the query of GET /api/v1/top
type TopRequest struct {
	Lookback  int    `form:"lookback,omitempty"` // calendar days, default: 7
	N         int    `form:"n,omitempty"`        // default: 5
	Sector    string `form:"sector,omitempty"`
	Subsector string `form:"subsector,omitempty"`
}
