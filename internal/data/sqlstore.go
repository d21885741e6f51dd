package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"basket-backtest/internal/model"
)

// Dialect selects placeholder and array-binding style.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

const DefaultPriceTable = "prices_1d"

// SQLStore reads daily closes from a (dt, ticker, close) table.
type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect
	Table   string
	Log     *zap.Logger
}

// OpenSQLStore opens dsn with the driver matching dialect.
func OpenSQLStore(dialect Dialect, dsn, table string, log *zap.Logger) (*SQLStore, error) {
	switch dialect {
	case Postgres, SQLite:
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}
	return &SQLStore{DB: db, Dialect: dialect, Table: table, Log: log}, nil
}

func (s *SQLStore) Close() error { return s.DB.Close() }

// LoadPanel fetches non-null closes for tickers with start <= dt <= end,
// ordered by dt then ticker, and pivots them into a panel. Zero bounds
// are open.
func (s *SQLStore) LoadPanel(ctx context.Context, tickers []string, start, end time.Time) (*model.PricePanel, error) {
	obs, err := s.LoadObservations(ctx, tickers, start, end)
	if err != nil {
		return nil, err
	}
	return PivotCloses(obs)
}

func (s *SQLStore) LoadObservations(ctx context.Context, tickers []string, start, end time.Time) ([]Observation, error) {
	if len(tickers) == 0 {
		return nil, nil
	}
	query, args := s.buildQuery(tickers, start, end)

	began := time.Now()
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			dt     any
			ticker string
			px     float64
		)
		if err := rows.Scan(&dt, &ticker, &px); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		ts, err := scanTime(dt)
		if err != nil {
			return nil, fmt.Errorf("ticker %s: %w", ticker, err)
		}
		out = append(out, Observation{Time: ts, Ticker: ticker, Close: px})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read closes: %w", err)
	}

	s.logger().Debug("loaded closes",
		zap.String("dialect", string(s.Dialect)),
		zap.Int("tickers", len(tickers)),
		zap.Int("rows", len(out)),
		zap.Duration("duration", time.Since(began)),
	)
	return out, nil
}

func (s *SQLStore) buildQuery(tickers []string, start, end time.Time) (string, []any) {
	table := s.Table
	if table == "" {
		table = DefaultPriceTable
	}

	var (
		b    strings.Builder
		args []any
	)
	fmt.Fprintf(&b, "SELECT dt, ticker, close FROM %s WHERE ", table)

	switch s.Dialect {
	case Postgres:
		args = append(args, pq.Array(tickers))
		b.WriteString("ticker = ANY($1)")
		if !start.IsZero() {
			args = append(args, start)
			fmt.Fprintf(&b, " AND dt >= $%d", len(args))
		}
		if !end.IsZero() {
			args = append(args, end)
			fmt.Fprintf(&b, " AND dt <= $%d", len(args))
		}
	default:
		b.WriteString("ticker IN (")
		for i, t := range tickers {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("?")
			args = append(args, t)
		}
		b.WriteString(")")
		if !start.IsZero() {
			args = append(args, start.Format("2006-01-02"))
			b.WriteString(" AND dt >= ?")
		}
		if !end.IsZero() {
			args = append(args, end.Format("2006-01-02"))
			b.WriteString(" AND dt <= ?")
		}
	}
	b.WriteString(" AND close IS NOT NULL ORDER BY dt, ticker")
	return b.String(), args
}

func scanTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return ParseTimestamp(t)
	case []byte:
		return ParseTimestamp(string(t))
	}
	return time.Time{}, fmt.Errorf("unsupported dt value %T", v)
}

func (s *SQLStore) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
