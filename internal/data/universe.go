package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"

	"basket-backtest/internal/model"
)

// AllFilter matches every sector or subsector.
const AllFilter = "All"

// Instrument is one classified ticker.
type Instrument struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name,omitempty"`
	Sector    string `json:"sector"`
	Subsector string `json:"subsector"`
}

// Universe is the sector -> subsector -> ticker classification.
type Universe struct {
	UpdatedAt   string       `json:"updated_at,omitempty"`
	Instruments []Instrument `json:"instruments"`
}

// LoadUniverse loads a classification file and normalizes its tickers.
func LoadUniverse(filePath string) (*Universe, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read universe file: %w", err)
	}
	var u Universe
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to parse universe file: %w", err)
	}
	for i, in := range u.Instruments {
		t, err := model.NormalizeTicker(in.Ticker)
		if err != nil {
			return nil, fmt.Errorf("instrument %d: %w", i, err)
		}
		u.Instruments[i].Ticker = t
	}
	return &u, nil
}

// DefaultUniversePath honours UNIVERSE_FILE, else ./data/universe.json.
func DefaultUniversePath() string {
	if path := os.Getenv("UNIVERSE_FILE"); path != "" {
		return path
	}
	return "./data/universe.json"
}

// ResolveTickers returns the sorted unique tickers matching sector and
// subsector. Empty or "All" matches everything at that level.
func (u *Universe) ResolveTickers(sector, subsector string) []string {
	if u == nil {
		return []string{}
	}
	matched := lo.Filter(u.Instruments, func(in Instrument, _ int) bool {
		return matchesFilter(sector, in.Sector) && matchesFilter(subsector, in.Subsector)
	})
	out := lo.Uniq(lo.Map(matched, func(in Instrument, _ int) string { return in.Ticker }))
	sort.Strings(out)
	return out
}

func (u *Universe) Sectors() []string {
	if u == nil {
		return []string{}
	}
	out := lo.Uniq(lo.Map(u.Instruments, func(in Instrument, _ int) string { return in.Sector }))
	sort.Strings(out)
	return out
}

// Subsectors lists the subsectors of sector, or of every sector for "All".
func (u *Universe) Subsectors(sector string) []string {
	if u == nil {
		return []string{}
	}
	matched := lo.Filter(u.Instruments, func(in Instrument, _ int) bool {
		return matchesFilter(sector, in.Sector)
	})
	out := lo.Uniq(lo.Map(matched, func(in Instrument, _ int) string { return in.Subsector }))
	sort.Strings(out)
	return out
}

func matchesFilter(filter, value string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || strings.EqualFold(f, AllFilter) || strings.EqualFold(f, value)
}
