package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"basket-backtest/internal/api/models"
	"basket-backtest/internal/config"
)

// ListLevers handles GET /api/v1/levers
func ListLevers(c *gin.Context) {
	def := config.DefaultSimulation()
	grid := config.DefaultGrid()
	levers := []models.LeverInfo{
		{
			Name:        "buy_threshold_pct",
			Type:        "float",
			Description: "Buy when the trailing return over buy_window_days falls to -threshold% or below. Keeps buying each bar while it holds.",
			Default:     def.BuyThresholdPct,
			Sweepable:   true,
		},
		{
			Name:        "buy_window_days",
			Type:        "int",
			Description: "Number of past observations of the ticker used for the buy signal",
			Default:     def.BuyWindowDays,
			Sweepable:   true,
		},
		{
			Name:        "sell_threshold_pct",
			Type:        "float",
			Description: "Liquidate the whole position once the sell-window return crosses the threshold (absolute value is used)",
			Default:     def.SellThresholdPct,
			Sweepable:   true,
		},
		{
			Name:        "sell_window_days",
			Type:        "int",
			Description: "Number of past observations of the ticker used for the sell signal",
			Default:     def.SellWindowDays,
			Sweepable:   true,
		},
		{
			Name:        "sell_mode",
			Type:        "string",
			Description: "'drop' sells when return <= -threshold, 'gain' sells when return >= +threshold",
			Default:     def.SellMode,
		},
		{
			Name:        "buy_unit_usd",
			Type:        "float",
			Description: "USD deployed per buy for every ticker (buy_units overrides per ticker); swept as deployment_usd",
			Default:     def.BuyUnitUSD,
			Sweepable:   true,
		},
		{
			Name:        "starting_cash",
			Type:        "float",
			Description: "Initial cash balance in USD",
			Default:     def.StartingCash,
		},
		{
			Name:        "annual_cash_yield_pct",
			Type:        "float",
			Description: "Annual yield earned on a positive cash balance",
			Default:     def.AnnualCashYieldPct,
		},
		{
			Name:        "annual_borrow_rate_pct",
			Type:        "float",
			Description: "Annual rate charged on a negative cash balance",
			Default:     def.AnnualBorrowRatePct,
		},
		{
			Name:        "allow_leverage",
			Type:        "bool",
			Description: "Allow buys that take cash below zero",
			Default:     *def.AllowLeverage,
		},
		{
			Name:        "fee_bps",
			Type:        "float",
			Description: "Fee in basis points charged on each buy and sell",
			Default:     def.FeeBps,
		},
		{
			Name:        "allow_reentry",
			Type:        "bool",
			Description: "Allow buying a ticker again after it has been sold",
			Default:     *def.AllowReentry,
		},
	}

	c.JSON(http.StatusOK, gin.H{"levers": levers, "default_grid": grid})
}
