package analysis

import (
	"math"
	"sort"
	"time"

	"basket-backtest/internal/model"
)

// Performance is a ticker's trailing calendar-window return, used for
// "top performers" rankings.
type Performance struct {
	Ticker      string
	StartTime   time.Time
	LatestTime  time.Time
	StartClose  float64
	LatestClose float64
	ReturnPct   float64
}

// TopPerformers ranks tickers by return over the last lookbackDays calendar
// days of their own history. The start close is the latest observation at or
// before (latest time - lookbackDays). Tickers without a start observation
// are dropped; a zero start close keeps the row with a NaN return, ranked
// after every defined return. Ordering is return desc, then ticker asc.
// topN <= 0 keeps all.
func TopPerformers(panel *model.PricePanel, tickers []string, lookbackDays, topN int) []Performance {
	if len(tickers) == 0 {
		tickers = panel.Tickers()
	}
	out := make([]Performance, 0, len(tickers))
	for _, t := range tickers {
		p, ok := computePerformance(panel, t, lookbackDays)
		if ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := compareDesc(out[i].ReturnPct, out[j].ReturnPct); c != 0 {
			return c < 0
		}
		return out[i].Ticker < out[j].Ticker
	})
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}

func computePerformance(panel *model.PricePanel, ticker string, lookbackDays int) (Performance, bool) {
	p := Performance{Ticker: ticker}
	latest := -1
	for i := panel.Len() - 1; i >= 0; i-- {
		if px, ok := panel.Price(i, ticker); ok {
			latest = i
			p.LatestTime = panel.Time(i)
			p.LatestClose = px
			break
		}
	}
	if latest < 0 {
		return p, false
	}

	cutoff := p.LatestTime.AddDate(0, 0, -lookbackDays)
	for i := latest; i >= 0; i-- {
		ts := panel.Time(i)
		if ts.After(cutoff) {
			continue
		}
		if px, ok := panel.Price(i, ticker); ok {
			p.StartTime = ts
			p.StartClose = px
			break
		}
	}
	if p.StartTime.IsZero() {
		return p, false
	}
	if p.StartClose == 0 {
		p.ReturnPct = math.NaN()
		return p, true
	}
	p.ReturnPct = (p.LatestClose/p.StartClose - 1.0) * 100.0
	return p, true
}
