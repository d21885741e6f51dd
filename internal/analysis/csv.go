package analysis

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
)

var gridHeader = []string{
	"rank",
	"buy_threshold_pct",
	"buy_window_days",
	"sell_threshold_pct",
	"sell_window_days",
	"deployment_usd",
	"starting_cash",
	"final_cash",
	"final_invested",
	"final_total_wealth",
	"pnl",
	"total_return_pct",
	"max_drawdown_pct",
	"trade_count",
}

func WriteGridCSV(path string, rows []GridResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeGridCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeGridCSV writes ranked rows. NaN metrics and an absent deployment
// lever are written as empty cells, infinities as "inf" / "-inf".
func EncodeGridCSV(out io.Writer, rows []GridResult) error {
	w := csv.NewWriter(out)
	if err := w.Write(gridHeader); err != nil {
		return err
	}
	for i, r := range rows {
		deployment := ""
		if r.HasDeployment {
			deployment = fmtFloat(r.DeploymentUSD)
		}
		row := []string{
			strconv.Itoa(i + 1),
			fmtFloat(r.BuyThresholdPct),
			strconv.Itoa(r.BuyWindowDays),
			fmtFloat(r.SellThresholdPct),
			strconv.Itoa(r.SellWindowDays),
			deployment,
			fmtFloat(r.StartingCash),
			fmtFloat(r.FinalCash),
			fmtFloat(r.FinalInvested),
			fmtFloat(r.FinalTotalWealth),
			fmtFloat(r.PnL),
			fmtFloat(r.TotalReturnPct),
			fmtFloat(r.MaxDrawdownPct),
			strconv.Itoa(r.TradeCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	if math.IsInf(x, -1) {
		return "-inf"
	}
	if math.IsInf(x, 1) {
		return "inf"
	}
	if !Defined(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
