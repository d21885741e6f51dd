package data

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"basket-backtest/internal/model"
)

// Source kinds.
const (
	KindJSON       = "json"
	KindCSV        = "csv"
	KindPostgres   = "postgres"
	KindSQLite     = "sqlite"
	KindClickHouse = "clickhouse"
	KindHTTP       = "http"
)

// Source says where closes come from.
type Source struct {
	Kind   string
	Path   string
	DSN    string
	Table  string
	URL    string
	APIKey string
}

// PanelLoader is implemented by every store.
type PanelLoader interface {
	LoadPanel(ctx context.Context, tickers []string, start, end time.Time) (*model.PricePanel, error)
}

// ResolveKind fills an empty Kind from the file extension of Path.
func (s Source) ResolveKind() string {
	if s.Kind != "" {
		return strings.ToLower(s.Kind)
	}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv":
		return KindCSV
	case ".json":
		return KindJSON
	}
	return ""
}

// LoadPanel loads closes for tickers within [start, end]. File sources keep
// every ticker in the file when tickers is empty; zero bounds are open.
func LoadPanel(ctx context.Context, src Source, tickers []string, start, end time.Time, log *zap.Logger) (*model.PricePanel, error) {
	if log == nil {
		log = zap.NewNop()
	}
	kind := src.ResolveKind()

	var (
		panel *model.PricePanel
		err   error
	)
	switch kind {
	case KindJSON:
		panel, err = LoadPanelJSON(src.Path)
	case KindCSV:
		panel, err = LoadPanelCSV(src.Path)
	case KindPostgres, KindSQLite:
		dialect := Postgres
		if kind == KindSQLite {
			dialect = SQLite
		}
		var store *SQLStore
		store, err = OpenSQLStore(dialect, src.DSN, src.Table, log)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadPanel(ctx, tickers, start, end)
	case KindClickHouse:
		var store *ClickHouseStore
		store, err = OpenClickHouseStore(ctx, src.DSN, src.Table, log)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadPanel(ctx, tickers, start, end)
	case KindHTTP:
		return NewQuoteClient(src.APIKey, src.URL, log).LoadPanel(ctx, tickers, start, end)
	default:
		return nil, fmt.Errorf("unsupported data source %q", src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s panel %s: %w", kind, src.Path, err)
	}

	panel = panel.Between(start, end)
	log.Info("panel loaded",
		zap.String("source", kind),
		zap.String("path", src.Path),
		zap.Int("timestamps", panel.Len()),
		zap.Int("tickers", len(panel.Tickers())),
	)
	return panel, nil
}
