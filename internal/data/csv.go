package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"basket-backtest/internal/model"
)

// LoadPanelCSV reads a wide CSV: header "date,<ticker>,...", one row per
// timestamp. Empty cells are missing observations.
func LoadPanelCSV(path string) (*model.PricePanel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePanelCSV(f)
}

func DecodePanelCSV(r io.Reader) (*model.PricePanel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewPricePanel(nil)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 1 {
		return nil, errors.New("CSV header must start with a date column")
	}
	tickers := header[1:]

	var rows []model.PriceRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := ParseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		prices := make(map[string]float64, len(tickers))
		for j, t := range tickers {
			cell := strings.TrimSpace(rec[j+1])
			if cell == "" {
				continue
			}
			px, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, t, err)
			}
			prices[t] = px
		}
		rows = append(rows, model.PriceRow{Time: ts, Prices: prices})
	}
	return model.NewPricePanel(rows)
}
