package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"basket-backtest/internal/model"
)

// PanelFile is the JSON panel format:
//
//	{"rows":[{"time":"2024-01-02T00:00:00Z","prices":{"SPY":472.6,"QQQ":null}}]}
//
// A null or absent price is a missing observation.
type PanelFile struct {
	Rows []PanelFileRow `json:"rows"`
}

type PanelFileRow struct {
	Time   string              `json:"time"`
	Prices map[string]*float64 `json:"prices"`
}

func LoadPanelJSON(path string) (*model.PricePanel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePanelJSON(f)
}

func DecodePanelJSON(r io.Reader) (*model.PricePanel, error) {
	var pf PanelFile
	if err := json.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("failed to parse panel JSON: %w", err)
	}
	return pf.Panel()
}

// Panel validates the file rows into a PricePanel.
func (pf PanelFile) Panel() (*model.PricePanel, error) {
	rows := make([]model.PriceRow, 0, len(pf.Rows))
	for i, r := range pf.Rows {
		ts, err := ParseTimestamp(r.Time)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		prices := make(map[string]float64, len(r.Prices))
		for t, px := range r.Prices {
			if px != nil {
				prices[t] = *px
			}
		}
		rows = append(rows, model.PriceRow{Time: ts, Prices: prices})
	}
	return model.NewPricePanel(rows)
}
