package optimize

import (
	"reflect"
	"testing"
)

func TestBuildFloatGrid(t *testing.T) {
	cases := []struct {
		name             string
		start, end, step float64
		want             []float64
	}{
		{"inclusive end", 1, 5, 1, []float64{1, 2, 3, 4, 5}},
		{"fractional step no drift", 0.1, 0.5, 0.1, []float64{0.1, 0.2, 0.3, 0.4, 0.5}},
		{"zero step", 3, 10, 0, []float64{3}},
		{"negative step", 3, 10, -1, []float64{3}},
		{"end below start", 5, 1, 1, []float64{}},
		{"end not on grid", 1, 2, 0.4, []float64{1, 1.4, 1.8}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildFloatGrid(tc.start, tc.end, tc.step)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("BuildFloatGrid(%v, %v, %v) = %v, want %v", tc.start, tc.end, tc.step, got, tc.want)
			}
		})
	}
}

func TestBuildFloatGridCapped(t *testing.T) {
	got := BuildFloatGrid(0, 1e9, 0.001)
	if len(got) != MaxGridPoints {
		t.Fatalf("expected %d points, got %d", MaxGridPoints, len(got))
	}
}

func TestBuildIntGrid(t *testing.T) {
	for _, tc := range []struct{ start, end, step int }{
		{3, 12, 3}, {1, 10, 1}, {2, 9, 4}, {5, 5, 2},
	} {
		got := BuildIntGrid(tc.start, tc.end, tc.step)
		want := (tc.end-tc.start)/tc.step + 1
		if len(got) != want {
			t.Fatalf("BuildIntGrid(%d, %d, %d) has %d values, want %d", tc.start, tc.end, tc.step, len(got), want)
		}
		if got[0] != tc.start || got[len(got)-1] > tc.end {
			t.Fatalf("BuildIntGrid(%d, %d, %d) = %v", tc.start, tc.end, tc.step, got)
		}
	}
	if got := BuildIntGrid(7, 20, 0); !reflect.DeepEqual(got, []int{7}) {
		t.Fatalf("zero step: got %v", got)
	}
	if got := BuildIntGrid(9, 3, 1); len(got) != 0 {
		t.Fatalf("end below start: got %v", got)
	}
}

func TestLeversAtProductOrder(t *testing.T) {
	l := Levers{
		BuyThresholds:  []float64{1, 2},
		BuyWindows:     []int{3, 6},
		SellThresholds: []float64{4},
		SellWindows:    []int{5, 10},
	}
	if n := l.Combinations(); n != 8 {
		t.Fatalf("expected 8 combinations, got %d", n)
	}
	want := []Combo{
		{1, 3, 4, 5, 0, false},
		{1, 3, 4, 10, 0, false},
		{1, 6, 4, 5, 0, false},
		{1, 6, 4, 10, 0, false},
		{2, 3, 4, 5, 0, false},
		{2, 3, 4, 10, 0, false},
		{2, 6, 4, 5, 0, false},
		{2, 6, 4, 10, 0, false},
	}
	for i, w := range want {
		if got := l.At(i); got != w {
			t.Fatalf("At(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestLeversDeploymentMultiplies(t *testing.T) {
	l := Levers{
		BuyThresholds:  []float64{1, 2},
		BuyWindows:     []int{3},
		SellThresholds: []float64{4},
		SellWindows:    []int{5},
		Deployments:    []float64{500, 1000, 2000},
	}
	if n := l.Combinations(); n != 6 {
		t.Fatalf("expected 6 combinations, got %d", n)
	}
	c := l.At(4)
	if c.BuyThresholdPct != 2 || c.DeploymentUSD != 1000 || !c.HasDeployment {
		t.Fatalf("At(4) = %+v", c)
	}
}

func TestLeversEmptyLeverHasNoCombinations(t *testing.T) {
	l := Levers{BuyThresholds: []float64{1}, BuyWindows: []int{3}, SellThresholds: []float64{}, SellWindows: []int{5}}
	if n := l.Combinations(); n != 0 {
		t.Fatalf("expected 0 combinations, got %d", n)
	}
}
