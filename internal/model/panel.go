package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

var (
	ErrEmptyTicker        = errors.New("ticker must not be empty")
	ErrUnsortedPanel      = errors.New("panel rows must be in ascending time order")
	ErrDuplicateTimestamp = errors.New("panel contains a duplicate timestamp")
)

// PriceRow is one timestamp of a PricePanel.
// A ticker absent from Prices has no observation at that timestamp.
type PriceRow struct {
	Time   time.Time
	Prices map[string]float64
}

// PricePanel is an immutable, date-ordered matrix of closing prices.
// It is safe to share read-only across goroutines.
type PricePanel struct {
	rows    []PriceRow
	tickers []string
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return "", ErrEmptyTicker
	}
	return t, nil
}

// NewPricePanel copies rows into a validated panel.
// Non-finite prices are dropped and treated as missing observations.
func NewPricePanel(rows []PriceRow) (*PricePanel, error) {
	p := &PricePanel{rows: make([]PriceRow, 0, len(rows))}
	seen := map[string]struct{}{}
	for i, r := range rows {
		if i > 0 {
			prev := rows[i-1].Time
			if r.Time.Equal(prev) {
				return nil, fmt.Errorf("row %d (%s): %w", i, r.Time.Format(time.RFC3339), ErrDuplicateTimestamp)
			}
			if r.Time.Before(prev) {
				return nil, fmt.Errorf("row %d (%s): %w", i, r.Time.Format(time.RFC3339), ErrUnsortedPanel)
			}
		}
		prices := make(map[string]float64, len(r.Prices))
		for raw, px := range r.Prices {
			t, err := NormalizeTicker(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if math.IsNaN(px) || math.IsInf(px, 0) {
				continue
			}
			prices[t] = px
			seen[t] = struct{}{}
		}
		p.rows = append(p.rows, PriceRow{Time: r.Time, Prices: prices})
	}
	p.tickers = make([]string, 0, len(seen))
	for t := range seen {
		p.tickers = append(p.tickers, t)
	}
	sort.Strings(p.tickers)
	return p, nil
}

// Len returns the number of timestamps. A nil panel has length 0.
func (p *PricePanel) Len() int {
	if p == nil {
		return 0
	}
	return len(p.rows)
}

func (p *PricePanel) Time(i int) time.Time { return p.rows[i].Time }

// Price returns the observation for ticker at row i, if any.
func (p *PricePanel) Price(i int, ticker string) (float64, bool) {
	px, ok := p.rows[i].Prices[ticker]
	return px, ok
}

// Tickers returns every ticker with at least one observation, sorted.
func (p *PricePanel) Tickers() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.tickers))
	copy(out, p.tickers)
	return out
}

// Between returns the sub-panel with start <= time <= end.
// A zero start or end leaves that side unbounded.
func (p *PricePanel) Between(start, end time.Time) *PricePanel {
	if p == nil {
		return nil
	}
	rows := make([]PriceRow, 0, len(p.rows))
	seen := map[string]struct{}{}
	for _, r := range p.rows {
		if !start.IsZero() && r.Time.Before(start) {
			continue
		}
		if !end.IsZero() && r.Time.After(end) {
			continue
		}
		rows = append(rows, r)
		for t := range r.Prices {
			seen[t] = struct{}{}
		}
	}
	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return &PricePanel{rows: rows, tickers: tickers}
}
