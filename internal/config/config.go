package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"basket-backtest/internal/data"
	"basket-backtest/internal/model"
	"basket-backtest/internal/optimize"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load simulation levers from a separate preset YAML.
	// Keys set in Simulation override the preset.
	PresetFile string           `yaml:"preset_file"`
	Simulation SimulationConfig `yaml:"simulation"`
	Grid       GridConfig       `yaml:"grid"`
	Data       DataConfig       `yaml:"data"`
}

type SimulationConfig struct {
	Name       string             `yaml:"name" json:"name,omitempty"`
	Tickers    []string           `yaml:"tickers" json:"tickers,omitempty"`
	BuyUnitUSD float64            `yaml:"buy_unit_usd" json:"buy_unit_usd,omitempty"`
	BuyUnits   map[string]float64 `yaml:"buy_units" json:"buy_units,omitempty"`

	StartingCash        float64 `yaml:"starting_cash" json:"starting_cash,omitempty"`
	AnnualCashYieldPct  float64 `yaml:"annual_cash_yield_pct" json:"annual_cash_yield_pct,omitempty"`
	AnnualBorrowRatePct float64 `yaml:"annual_borrow_rate_pct" json:"annual_borrow_rate_pct,omitempty"`
	AllowLeverage       *bool   `yaml:"allow_leverage" json:"allow_leverage,omitempty"`

	BuyThresholdPct  float64 `yaml:"buy_threshold_pct" json:"buy_threshold_pct,omitempty"`
	BuyWindowDays    int     `yaml:"buy_window_days" json:"buy_window_days,omitempty"`
	SellThresholdPct float64 `yaml:"sell_threshold_pct" json:"sell_threshold_pct,omitempty"`
	SellWindowDays   int     `yaml:"sell_window_days" json:"sell_window_days,omitempty"`
	SellMode         string  `yaml:"sell_mode" json:"sell_mode,omitempty"`

	FeeBps       float64 `yaml:"fee_bps" json:"fee_bps,omitempty"`
	AllowReentry *bool   `yaml:"allow_reentry" json:"allow_reentry,omitempty"`

	// Start and End bound the panel, as YYYY-MM-DD. Empty is open.
	Start string `yaml:"start" json:"start,omitempty"`
	End   string `yaml:"end" json:"end,omitempty"`
}

type Range struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

type IntRange struct {
	Min  int `yaml:"min" json:"min"`
	Max  int `yaml:"max" json:"max"`
	Step int `yaml:"step" json:"step"`
}

type GridConfig struct {
	BuyThreshold  Range    `yaml:"buy_threshold_pct" json:"buy_threshold_pct"`
	BuyWindow     IntRange `yaml:"buy_window_days" json:"buy_window_days"`
	SellThreshold Range    `yaml:"sell_threshold_pct" json:"sell_threshold_pct"`
	SellWindow    IntRange `yaml:"sell_window_days" json:"sell_window_days"`
	// Deployment, when set, sweeps a uniform buy unit across all tickers.
	Deployment *Range `yaml:"deployment_usd" json:"deployment_usd,omitempty"`
	Workers    int    `yaml:"workers" json:"workers,omitempty"`
}

type DataConfig struct {
	Source       string `yaml:"source"`
	Path         string `yaml:"path"`
	DSN          string `yaml:"dsn"`
	Table        string `yaml:"table"`
	URL          string `yaml:"url"`
	UniverseFile string `yaml:"universe_file"`
}

// DefaultSimulation holds the levers used when a config leaves them out.
func DefaultSimulation() SimulationConfig {
	leverage, reentry := true, true
	return SimulationConfig{
		BuyUnitUSD:          1000,
		StartingCash:        100000,
		AnnualCashYieldPct:  2,
		AnnualBorrowRatePct: 4,
		AllowLeverage:       &leverage,
		BuyThresholdPct:     2,
		BuyWindowDays:       5,
		SellThresholdPct:    2,
		SellWindowDays:      5,
		SellMode:            string(model.SellOnDrop),
		AllowReentry:        &reentry,
	}
}

func DefaultGrid() GridConfig {
	return GridConfig{
		BuyThreshold:  Range{Min: 1, Max: 5, Step: 1},
		BuyWindow:     IntRange{Min: 3, Max: 12, Step: 3},
		SellThreshold: Range{Min: 1, Max: 5, Step: 1},
		SellWindow:    IntRange{Min: 3, Max: 12, Step: 3},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads defaults, the preset file and the config, in that
// order, without validating. Keys absent from a layer keep the value below.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		PresetFile string `yaml:"preset_file"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	c := Config{Simulation: DefaultSimulation(), Grid: DefaultGrid()}
	if head.PresetFile != "" {
		if err := decodePresetInto(resolveRelative(path, head.PresetFile), &c.Simulation); err != nil {
			return nil, err
		}
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.Data.Path != "" {
		c.Data.Path = resolveRelative(path, c.Data.Path)
	}
	return &c, nil
}

// resolveRelative joins ref to the config file's directory when the file
// exists there, else leaves it relative to the working directory.
func resolveRelative(configPath, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	cand := filepath.Join(filepath.Dir(configPath), ref)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return ref
}

type presetFileWrapper struct {
	Simulation *SimulationConfig `yaml:"simulation"`
}

func decodePresetInto(path string, dst *SimulationConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &presetFileWrapper{Simulation: dst}); err != nil {
		return fmt.Errorf("failed to parse preset %s: %w", path, err)
	}
	return nil
}

// LoadPreset reads a preset file on top of the defaults.
func LoadPreset(path string) (SimulationConfig, error) {
	s := DefaultSimulation()
	if err := decodePresetInto(path, &s); err != nil {
		return SimulationConfig{}, err
	}
	return s, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Simulation.ToModelParams(); err != nil {
		return fmt.Errorf("simulation config invalid: %w", err)
	}
	if _, _, err := c.Simulation.Period(); err != nil {
		return fmt.Errorf("simulation config invalid: %w", err)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid config invalid: %w", err)
	}
	switch c.Data.ToSource().ResolveKind() {
	case "", data.KindJSON, data.KindCSV, data.KindPostgres, data.KindSQLite, data.KindClickHouse, data.KindHTTP:
	default:
		return fmt.Errorf("data config invalid: unsupported source %q", c.Data.Source)
	}
	return nil
}

// ToModelParams builds engine parameters. Every ticker gets BuyUnitUSD
// unless BuyUnits names it; tickers only in BuyUnits are included too.
func (s SimulationConfig) ToModelParams() (model.SimulationParams, error) {
	mode, err := model.ParseSellMode(s.SellMode)
	if err != nil {
		return model.SimulationParams{}, err
	}
	units := map[string]float64{}
	for _, raw := range s.Tickers {
		t, err := model.NormalizeTicker(raw)
		if err != nil {
			return model.SimulationParams{}, err
		}
		units[t] = s.BuyUnitUSD
	}
	for raw, u := range s.BuyUnits {
		t, err := model.NormalizeTicker(raw)
		if err != nil {
			return model.SimulationParams{}, err
		}
		units[t] = u
	}
	p := model.SimulationParams{
		BuyUnitByTicker:     units,
		StartingCash:        s.StartingCash,
		AnnualCashYieldPct:  s.AnnualCashYieldPct,
		AnnualBorrowRatePct: s.AnnualBorrowRatePct,
		AllowLeverage:       s.AllowLeverage != nil && *s.AllowLeverage,
		BuyThresholdPct:     s.BuyThresholdPct,
		BuyWindowDays:       s.BuyWindowDays,
		SellThresholdPct:    s.SellThresholdPct,
		SellWindowDays:      s.SellWindowDays,
		SellMode:            mode,
		FeeBps:              s.FeeBps,
		AllowReentry:        s.AllowReentry != nil && *s.AllowReentry,
	}
	if err := p.Validate(); err != nil {
		return model.SimulationParams{}, err
	}
	return p, nil
}

// Period parses Start and End. Missing bounds are zero times.
func (s SimulationConfig) Period() (start, end time.Time, err error) {
	if s.Start != "" {
		if start, err = time.Parse("2006-01-02", s.Start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start (expected YYYY-MM-DD): %w", err)
		}
	}
	if s.End != "" {
		if end, err = time.Parse("2006-01-02", s.End); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end (expected YYYY-MM-DD): %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return time.Time{}, time.Time{}, errors.New("start must not be after end")
	}
	return start, end, nil
}

func (g GridConfig) Validate() error {
	if g.BuyWindow.Min < 1 || g.SellWindow.Min < 1 {
		return errors.New("window ranges must start at >= 1")
	}
	if g.Levers().Combinations() == 0 {
		return errors.New("grid has no combinations")
	}
	if g.Workers < 0 {
		return errors.New("workers must be >= 0")
	}
	return nil
}

// Levers expands the ranges into candidate values.
func (g GridConfig) Levers() optimize.Levers {
	l := optimize.Levers{
		BuyThresholds:  optimize.BuildFloatGrid(g.BuyThreshold.Min, g.BuyThreshold.Max, g.BuyThreshold.Step),
		BuyWindows:     optimize.BuildIntGrid(g.BuyWindow.Min, g.BuyWindow.Max, g.BuyWindow.Step),
		SellThresholds: optimize.BuildFloatGrid(g.SellThreshold.Min, g.SellThreshold.Max, g.SellThreshold.Step),
		SellWindows:    optimize.BuildIntGrid(g.SellWindow.Min, g.SellWindow.Max, g.SellWindow.Step),
	}
	if g.Deployment != nil {
		l.Deployments = optimize.BuildFloatGrid(g.Deployment.Min, g.Deployment.Max, g.Deployment.Step)
	}
	return l
}

func (d DataConfig) ToSource() data.Source {
	return data.Source{
		Kind:  d.Source,
		Path:  d.Path,
		DSN:   d.DSN,
		Table: d.Table,
		URL:   d.URL,
	}
}

// SimulationOverride is a partial SimulationConfig. A nil field keeps the
// base value; a non-nil field replaces it, zero included.
type SimulationOverride struct {
	Name       *string            `json:"name,omitempty"`
	Tickers    []string           `json:"tickers,omitempty"`
	BuyUnitUSD *float64           `json:"buy_unit_usd,omitempty"`
	BuyUnits   map[string]float64 `json:"buy_units,omitempty"`

	StartingCash        *float64 `json:"starting_cash,omitempty"`
	AnnualCashYieldPct  *float64 `json:"annual_cash_yield_pct,omitempty"`
	AnnualBorrowRatePct *float64 `json:"annual_borrow_rate_pct,omitempty"`
	AllowLeverage       *bool    `json:"allow_leverage,omitempty"`

	BuyThresholdPct  *float64 `json:"buy_threshold_pct,omitempty"`
	BuyWindowDays    *int     `json:"buy_window_days,omitempty"`
	SellThresholdPct *float64 `json:"sell_threshold_pct,omitempty"`
	SellWindowDays   *int     `json:"sell_window_days,omitempty"`
	SellMode         *string  `json:"sell_mode,omitempty"`

	FeeBps       *float64 `json:"fee_bps,omitempty"`
	AllowReentry *bool    `json:"allow_reentry,omitempty"`

	Start *string `json:"start,omitempty"`
	End   *string `json:"end,omitempty"`
}

// MergeSimulation overlays the set fields of override onto base.
// Used to apply request overrides on top of a preset.
func MergeSimulation(base SimulationConfig, override SimulationOverride) SimulationConfig {
	out := base
	setString(&out.Name, override.Name)
	if len(override.Tickers) > 0 {
		out.Tickers = append([]string(nil), override.Tickers...)
	}
	setFloat(&out.BuyUnitUSD, override.BuyUnitUSD)
	if len(override.BuyUnits) > 0 {
		units := make(map[string]float64, len(base.BuyUnits)+len(override.BuyUnits))
		for t, u := range base.BuyUnits {
			units[t] = u
		}
		for t, u := range override.BuyUnits {
			units[t] = u
		}
		out.BuyUnits = units
	}
	setFloat(&out.StartingCash, override.StartingCash)
	setFloat(&out.AnnualCashYieldPct, override.AnnualCashYieldPct)
	setFloat(&out.AnnualBorrowRatePct, override.AnnualBorrowRatePct)
	out.AllowLeverage = mergeBool(base.AllowLeverage, override.AllowLeverage)
	setFloat(&out.BuyThresholdPct, override.BuyThresholdPct)
	if override.BuyWindowDays != nil {
		out.BuyWindowDays = *override.BuyWindowDays
	}
	setFloat(&out.SellThresholdPct, override.SellThresholdPct)
	if override.SellWindowDays != nil {
		out.SellWindowDays = *override.SellWindowDays
	}
	setString(&out.SellMode, override.SellMode)
	setFloat(&out.FeeBps, override.FeeBps)
	out.AllowReentry = mergeBool(base.AllowReentry, override.AllowReentry)
	setString(&out.Start, override.Start)
	setString(&out.End, override.End)
	return out
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// mergeBool returns a fresh pointer so the result never aliases base.
func mergeBool(base, override *bool) *bool {
	src := base
	if override != nil {
		src = override
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}
