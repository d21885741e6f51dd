package data

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"basket-backtest/internal/model"
)

// ClickHouseStore reads daily closes from a ClickHouse table with columns
// dt Date, ticker String, close Nullable(Float64).
type ClickHouseStore struct {
	Conn  clickhouse.Conn
	Table string
	Log   *zap.Logger
}

// OpenClickHouseStore connects with a clickhouse:// DSN and pings the server.
func OpenClickHouseStore(ctx context.Context, dsn, table string, log *zap.Logger) (*ClickHouseStore, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse DSN %s: %w", redactDSN(dsn), err)
	}
	opts.Settings = clickhouse.Settings{"max_execution_time": uint64(60)}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &ClickHouseStore{Conn: conn, Table: table, Log: log}, nil
}

func (s *ClickHouseStore) Close() error { return s.Conn.Close() }

func (s *ClickHouseStore) LoadPanel(ctx context.Context, tickers []string, start, end time.Time) (*model.PricePanel, error) {
	if len(tickers) == 0 {
		return model.NewPricePanel(nil)
	}
	query, args := s.buildQuery(tickers, start, end)

	began := time.Now()
	rows, err := s.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var (
			dt     time.Time
			ticker string
			px     *float64
		)
		if err := rows.Scan(&dt, &ticker, &px); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		if px == nil {
			continue
		}
		obs = append(obs, Observation{Time: dt, Ticker: ticker, Close: *px})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}

	s.logger().Debug("loaded closes",
		zap.String("store", "clickhouse"),
		zap.Int("tickers", len(tickers)),
		zap.Int("rows", len(obs)),
		zap.Duration("duration", time.Since(began)),
	)
	return PivotCloses(obs)
}

func (s *ClickHouseStore) buildQuery(tickers []string, start, end time.Time) (string, []any) {
	table := s.Table
	if table == "" {
		table = DefaultPriceTable
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT dt, ticker, close FROM %s WHERE has(?, ticker)", table)
	args := []any{tickers}
	if !start.IsZero() {
		b.WriteString(" AND dt >= toDate(?)")
		args = append(args, start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		b.WriteString(" AND dt <= toDate(?)")
		args = append(args, end.Format("2006-01-02"))
	}
	b.WriteString(" AND close IS NOT NULL ORDER BY dt, ticker")
	return b.String(), args
}

func (s *ClickHouseStore) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// redactDSN drops credentials before a DSN reaches an error or log line.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<unparseable>"
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}
