package data

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"basket-backtest/internal/model"
)

// Observation is one long-format close, as stored in prices_1d.
type Observation struct {
	Time   time.Time
	Ticker string
	Close  float64
}

// PivotCloses turns long-format closes into a panel with one row per
// distinct timestamp. A repeated (time, ticker) pair keeps the last close.
func PivotCloses(obs []Observation) (*model.PricePanel, error) {
	byTime := map[int64]*model.PriceRow{}
	for _, o := range obs {
		key := o.Time.UnixNano()
		row, ok := byTime[key]
		if !ok {
			row = &model.PriceRow{Time: o.Time, Prices: map[string]float64{}}
			byTime[key] = row
		}
		row.Prices[o.Ticker] = o.Close
	}
	rows := make([]model.PriceRow, 0, len(byTime))
	for _, r := range byTime {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return model.NewPricePanel(rows)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339, SQL-style datetimes and plain dates.
// Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
