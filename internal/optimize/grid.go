package optimize

import (
	"github.com/shopspring/decimal"
)

// MaxGridPoints caps the candidates generated for one lever.
const MaxGridPoints = 5000

const gridPrecision = 6

var gridEpsilon = decimal.New(1, -9)

// BuildFloatGrid expands start, start+step, ... up to end (inclusive within
// 1e-9). Values are computed as start + i*step in decimal arithmetic and
// rounded to 6 places, so repeated steps do not drift. step <= 0 yields [start].
func BuildFloatGrid(start, end, step float64) []float64 {
	if step <= 0 {
		return []float64{start}
	}
	s := decimal.NewFromFloat(start)
	st := decimal.NewFromFloat(step)
	limit := decimal.NewFromFloat(end).Add(gridEpsilon)

	out := []float64{}
	for i := int64(0); i < MaxGridPoints; i++ {
		x := s.Add(st.Mul(decimal.NewFromInt(i)))
		if x.GreaterThan(limit) {
			break
		}
		v, _ := x.Round(gridPrecision).Float64()
		out = append(out, v)
	}
	return out
}

// BuildIntGrid expands start, start+step, ... <= end, i.e.
// floor((end-start)/step)+1 values when end >= start. step <= 0 yields [start].
func BuildIntGrid(start, end, step int) []int {
	if step <= 0 {
		return []int{start}
	}
	out := []int{}
	for x := start; x <= end && len(out) < MaxGridPoints; x += step {
		out = append(out, x)
	}
	return out
}

// Levers holds the candidate values of each swept lever.
// An empty Deployments means per-ticker buy units are left as configured.
type Levers struct {
	BuyThresholds  []float64
	BuyWindows     []int
	SellThresholds []float64
	SellWindows    []int
	Deployments    []float64
}

// Combinations is the size of the Cartesian product.
func (l Levers) Combinations() int {
	n := len(l.BuyThresholds) * len(l.BuyWindows) * len(l.SellThresholds) * len(l.SellWindows)
	if len(l.Deployments) > 0 {
		n *= len(l.Deployments)
	}
	return n
}

// Combo is one point of the lever space.
type Combo struct {
	BuyThresholdPct  float64
	BuyWindowDays    int
	SellThresholdPct float64
	SellWindowDays   int
	DeploymentUSD    float64
	HasDeployment    bool
}

// At decodes combination i in product order: buy threshold varies slowest,
// then buy window, sell threshold, sell window and deployment fastest.
func (l Levers) At(i int) Combo {
	var c Combo
	if n := len(l.Deployments); n > 0 {
		c.DeploymentUSD = l.Deployments[i%n]
		c.HasDeployment = true
		i /= n
	}
	c.SellWindowDays = l.SellWindows[i%len(l.SellWindows)]
	i /= len(l.SellWindows)
	c.SellThresholdPct = l.SellThresholds[i%len(l.SellThresholds)]
	i /= len(l.SellThresholds)
	c.BuyWindowDays = l.BuyWindows[i%len(l.BuyWindows)]
	i /= len(l.BuyWindows)
	c.BuyThresholdPct = l.BuyThresholds[i]
	return c
}
