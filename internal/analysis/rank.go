package analysis

import (
	"math"
	"sort"
)

// GridResult is one evaluated lever combination.
type GridResult struct {
	BuyThresholdPct  float64
	BuyWindowDays    int
	SellThresholdPct float64
	SellWindowDays   int

	// DeploymentUSD is set only when the sweep includes a deployment lever.
	DeploymentUSD float64
	HasDeployment bool

	Summary

	// Degraded marks a combination that could not be evaluated and carries neutral values.
	Degraded bool
}

// RankGridResults sorts rows in place: final total wealth desc, then max
// drawdown desc (least negative first), then trade count desc. Undefined
// values sort last. Equal rows keep their input order.
func RankGridResults(rows []GridResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := compareDesc(a.FinalTotalWealth, b.FinalTotalWealth); c != 0 {
			return c < 0
		}
		if c := compareDesc(a.MaxDrawdownPct, b.MaxDrawdownPct); c != 0 {
			return c < 0
		}
		return a.TradeCount > b.TradeCount
	})
}

// compareDesc returns -1 when a ranks before b, 1 when after, 0 when tied.
func compareDesc(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
