package models

import "time"

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID       string       `json:"id,omitempty"`
	Status   string       `json:"status"`
	Summary  RunSummary   `json:"summary"`
	Trades   []TradeRow   `json:"trades,omitempty"`
	Equity   []EquityRow  `json:"equity,omitempty"`
	Holdings []HoldingRow `json:"holdings,omitempty"`
}

// RunSummary contains the headline numbers of a run. Undefined metrics are null.
type RunSummary struct {
	StartingCash     float64    `json:"starting_cash"`
	FinalCash        float64    `json:"final_cash"`
	FinalInvested    float64    `json:"final_invested"`
	FinalTotalWealth float64    `json:"final_total_wealth"`
	PnL              float64    `json:"pnl"`
	TotalReturnPct   *float64   `json:"total_return_pct"`
	MaxDrawdownPct   *float64   `json:"max_drawdown_pct"`
	TradeCount       int        `json:"trade_count"`
	Timestamps       int        `json:"timestamps"`
	Window           TimeWindow `json:"window"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TradeRow represents one executed order
type TradeRow struct {
	Time             time.Time `json:"dt"`
	Ticker           string    `json:"ticker"`
	Action           string    `json:"action"` // "BUY", "SELL"
	Price            float64   `json:"price"`
	Shares           float64   `json:"shares"`
	OrderUSD         float64   `json:"order_usd,omitempty"`
	ProceedsNet      float64   `json:"proceeds_net,omitempty"`
	CashBefore       float64   `json:"cash_before"`
	CashAfter        float64   `json:"cash_after"`
	SharesAfter      float64   `json:"shares_after"`
	SignalReturnPct  float64   `json:"signal_return_pct"`
	SignalWindowDays int       `json:"signal_window_days"`
}

// EquityRow represents one point of the equity curve
type EquityRow struct {
	Time          time.Time `json:"dt"`
	Cash          float64   `json:"cash_balance"`
	InvestedValue float64   `json:"portfolio_value"`
	DeployedValue float64   `json:"deployed_value"`
	TotalWealth   float64   `json:"total_wealth"`
}

// HoldingRow represents one ticker's end-of-run position
type HoldingRow struct {
	Ticker         string  `json:"ticker"`
	BuyUnitUSD     float64 `json:"buy_unit_usd"`
	LastPrice      float64 `json:"last_price"`
	EndingShares   float64 `json:"ending_shares"`
	PositionValue  float64 `json:"position_value"`
	NotionalBought float64 `json:"notional_bought"`
	ProceedsSold   float64 `json:"proceeds_sold"`
	NetFlow        float64 `json:"net_flow"`
	Buys           int     `json:"buys"`
	Sells          int     `json:"sells"`
}

// TradesResponse represents a cached trade log
type TradesResponse struct {
	ID     string     `json:"id"`
	Trades []TradeRow `json:"trades"`
}

// GridSearchResponse represents a ranked sweep
type GridSearchResponse struct {
	ID         string    `json:"id,omitempty"`
	Status     string    `json:"status"` // "completed", "cancelled"
	Total      int       `json:"total"`
	Completed  int       `json:"completed"`
	DurationMS int64     `json:"duration_ms"`
	Rows       []GridRow `json:"rows"`
}

// GridRow represents one ranked lever combination
type GridRow struct {
	Rank             int      `json:"rank"`
	BuyThresholdPct  float64  `json:"buy_threshold_pct"`
	BuyWindowDays    int      `json:"buy_window_days"`
	SellThresholdPct float64  `json:"sell_threshold_pct"`
	SellWindowDays   int      `json:"sell_window_days"`
	DeploymentUSD    *float64 `json:"deployment_usd,omitempty"`
	FinalTotalWealth float64  `json:"final_total_wealth"`
	TotalReturnPct   *float64 `json:"total_return_pct"`
	MaxDrawdownPct   *float64 `json:"max_drawdown_pct"`
	TradeCount       int      `json:"trade_count"`
	Degraded         bool     `json:"degraded,omitempty"`
}

// StreamMessage is one websocket frame of a streamed sweep
type StreamMessage struct {
	Type      string              `json:"type"` // "progress", "result", "error"
	Completed int                 `json:"completed,omitempty"`
	Total     int                 `json:"total,omitempty"`
	Result    *GridSearchResponse `json:"result,omitempty"`
	Error     *ErrorDetail        `json:"error,omitempty"`
}

// PresetInfo represents information about a simulation preset
type PresetInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	File         string   `json:"file"`
	Tickers      []string `json:"tickers"`
	StartingCash float64  `json:"starting_cash"`
	SellMode     string   `json:"sell_mode"`
}

// LeverInfo describes a simulation lever
type LeverInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "bool", "string"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
	Sweepable   bool        `json:"sweepable"`
}

// UniverseResponse lists the sector classification
type UniverseResponse struct {
	Sectors     []string         `json:"sectors"`
	Subsectors  []string         `json:"subsectors"`
	Instruments []InstrumentInfo `json:"instruments"`
}

// InstrumentInfo represents one classified ticker
type InstrumentInfo struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Sector    string `json:"sector"`
	Subsector string `json:"subsector"`
}

// PerformerRow represents one ranked ticker of GET /api/v1/top
type PerformerRow struct {
	Rank        int       `json:"rank"`
	Ticker      string    `json:"ticker"`
	StartTime   time.Time `json:"start_dt"`
	LatestTime  time.Time `json:"latest_dt"`
	StartClose  float64   `json:"start_close"`
	LatestClose float64   `json:"latest_close"`
	ReturnPct   *float64  `json:"return_pct"` // null when the start close is 0
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
