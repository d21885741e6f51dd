package handlers

import (
	"basket-backtest/internal/analysis"
	"basket-backtest/internal/api/models"
	"basket-backtest/internal/backtest"
	"basket-backtest/internal/model"
	"basket-backtest/internal/optimize"
)

func optFloat(x float64) *float64 {
	if !analysis.Defined(x) {
		return nil
	}
	return &x
}

func buildRunSummary(res *backtest.Result, panel *model.PricePanel, s analysis.Summary) models.RunSummary {
	out := models.RunSummary{
		StartingCash:     s.StartingCash,
		FinalCash:        s.FinalCash,
		FinalInvested:    s.FinalInvested,
		FinalTotalWealth: s.FinalTotalWealth,
		PnL:              s.PnL,
		TotalReturnPct:   optFloat(s.TotalReturnPct),
		MaxDrawdownPct:   optFloat(s.MaxDrawdownPct),
		TradeCount:       s.TradeCount,
		Timestamps:       len(res.Equity),
	}
	if n := panel.Len(); n > 0 {
		out.Window = models.TimeWindow{Start: panel.Time(0), End: panel.Time(n - 1)}
	}
	return out
}

func convertTrades(trades []backtest.Trade) []models.TradeRow {
	out := make([]models.TradeRow, 0, len(trades))
	for _, t := range trades {
		out = append(out, models.TradeRow{
			Time:             t.Time,
			Ticker:           t.Ticker,
			Action:           string(t.Action),
			Price:            t.Price,
			Shares:           t.Shares,
			OrderUSD:         t.OrderUSD,
			ProceedsNet:      t.ProceedsNet,
			CashBefore:       t.CashBefore,
			CashAfter:        t.CashAfter,
			SharesAfter:      t.SharesAfter,
			SignalReturnPct:  t.SignalReturnPct,
			SignalWindowDays: t.SignalWindowDays,
		})
	}
	return out
}

func convertEquity(equity []backtest.EquitySnapshot) []models.EquityRow {
	out := make([]models.EquityRow, 0, len(equity))
	for _, e := range equity {
		out = append(out, models.EquityRow{
			Time:          e.Time,
			Cash:          e.Cash,
			InvestedValue: e.InvestedValue,
			DeployedValue: e.DeployedValue,
			TotalWealth:   e.TotalWealth,
		})
	}
	return out
}

func convertHoldings(holdings []backtest.Holding) []models.HoldingRow {
	out := make([]models.HoldingRow, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, models.HoldingRow{
			Ticker:         h.Ticker,
			BuyUnitUSD:     h.BuyUnitUSD,
			LastPrice:      h.LastPrice,
			EndingShares:   h.EndingShares,
			PositionValue:  h.PositionValue,
			NotionalBought: h.NotionalBought,
			ProceedsSold:   h.ProceedsSold,
			NetFlow:        h.NetFlow,
			Buys:           h.Buys,
			Sells:          h.Sells,
		})
	}
	return out
}

// buildGridResponse keeps the first limit ranked rows; limit <= 0 keeps all.
func buildGridResponse(rep *optimize.Report, limit int) *models.GridSearchResponse {
	rows := rep.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := &models.GridSearchResponse{
		Status:     "completed",
		Total:      rep.Total,
		Completed:  rep.Completed,
		DurationMS: rep.Duration.Milliseconds(),
		Rows:       make([]models.GridRow, 0, len(rows)),
	}
	if rep.Cancelled {
		out.Status = "cancelled"
	}
	for i, r := range rows {
		row := models.GridRow{
			Rank:             i + 1,
			BuyThresholdPct:  r.BuyThresholdPct,
			BuyWindowDays:    r.BuyWindowDays,
			SellThresholdPct: r.SellThresholdPct,
			SellWindowDays:   r.SellWindowDays,
			FinalTotalWealth: r.FinalTotalWealth,
			TotalReturnPct:   optFloat(r.TotalReturnPct),
			MaxDrawdownPct:   optFloat(r.MaxDrawdownPct),
			TradeCount:       r.TradeCount,
			Degraded:         r.Degraded,
		}
		if r.HasDeployment {
			row.DeploymentUSD = optFloat(r.DeploymentUSD)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
