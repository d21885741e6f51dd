package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"basket-backtest/internal/api/models"
	"basket-backtest/internal/config"
)

// PresetHandler lists simulation presets from a directory of YAML files
type PresetHandler struct {
	presetDir string
	log       *zap.Logger
}

// DefaultPresetDir honours PRESET_DIR, else ./presets under the working directory.
func DefaultPresetDir() string {
	dir := os.Getenv("PRESET_DIR")
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = filepath.Join(wd, "presets")
		} else {
			dir = "./presets"
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

func NewPresetHandler(dir string, log *zap.Logger) *PresetHandler {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("using preset directory", zap.String("dir", dir))
	return &PresetHandler{presetDir: dir, log: log}
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets := []models.PresetInfo{}

	entries, err := os.ReadDir(h.presetDir)
	if err != nil {
		h.log.Warn("failed to read preset directory", zap.String("dir", h.presetDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.presetDir, entry.Name())
		info, err := loadPresetInfo(path, entry.Name())
		if err != nil {
			h.log.Warn("skipping invalid preset", zap.String("file", path), zap.Error(err))
			continue
		}
		presets = append(presets, *info)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })

	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func loadPresetInfo(path, filename string) (*models.PresetInfo, error) {
	sim, err := config.LoadPreset(path)
	if err != nil {
		return nil, err
	}
	// "growth_basket.yaml" -> "growth_basket"
	id := strings.TrimSuffix(filename, ".yaml")
	name := sim.Name
	if name == "" {
		name = id
	}
	tickers := lo.Uniq(append(append([]string{}, sim.Tickers...), lo.Keys(sim.BuyUnits)...))
	sort.Strings(tickers)
	return &models.PresetInfo{
		ID:           id,
		Name:         name,
		File:         path,
		Tickers:      tickers,
		StartingCash: sim.StartingCash,
		SellMode:     sim.SellMode,
	}, nil
}
