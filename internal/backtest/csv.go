package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteTradesCSV(path string, trades []Trade) error {
	return writeFile(path, func(w io.Writer) error { return EncodeTradesCSV(w, trades) })
}

func EncodeTradesCSV(out io.Writer, trades []Trade) error {
	w := csv.NewWriter(out)
	header := []string{
		"dt",
		"ticker",
		"action",
		"price",
		"shares",
		"order_usd",
		"proceeds_net",
		"cash_before",
		"cash_after",
		"shares_after",
		"signal_return_pct",
		"signal_window_days",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			fmtTime(t.Time),
			t.Ticker,
			string(t.Action),
			fmtFloat(t.Price),
			fmtFloat(t.Shares),
			fmtFloat(t.OrderUSD),
			fmtFloat(t.ProceedsNet),
			fmtFloat(t.CashBefore),
			fmtFloat(t.CashAfter),
			fmtFloat(t.SharesAfter),
			fmtFloat(t.SignalReturnPct),
			strconv.Itoa(t.SignalWindowDays),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteEquityCSV(path string, equity []EquitySnapshot) error {
	return writeFile(path, func(w io.Writer) error { return EncodeEquityCSV(w, equity) })
}

func EncodeEquityCSV(out io.Writer, equity []EquitySnapshot) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"dt", "cash_balance", "portfolio_value", "deployed_value", "total_wealth"}); err != nil {
		return err
	}
	for _, e := range equity {
		row := []string{
			fmtTime(e.Time),
			fmtFloat(e.Cash),
			fmtFloat(e.InvestedValue),
			fmtFloat(e.DeployedValue),
			fmtFloat(e.TotalWealth),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WriteHoldingsCSV(path string, holdings []Holding) error {
	return writeFile(path, func(w io.Writer) error { return EncodeHoldingsCSV(w, holdings) })
}

func EncodeHoldingsCSV(out io.Writer, holdings []Holding) error {
	w := csv.NewWriter(out)
	header := []string{
		"ticker",
		"buy_unit_usd",
		"last_price",
		"ending_shares",
		"position_value",
		"notional_bought",
		"proceeds_sold",
		"net_flow",
		"buys",
		"sells",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, h := range holdings {
		row := []string{
			h.Ticker,
			fmtFloat(h.BuyUnitUSD),
			fmtFloat(h.LastPrice),
			fmtFloat(h.EndingShares),
			fmtFloat(h.PositionValue),
			fmtFloat(h.NotionalBought),
			fmtFloat(h.ProceedsSold),
			fmtFloat(h.NetFlow),
			strconv.Itoa(h.Buys),
			strconv.Itoa(h.Sells),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
