package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ohlcx/candlefeed/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// CandleRepository handles candle persistence and reads. Candles are
// append-only: rows are never updated or deleted, and the unique index on
// (symbol, interval_code, open_time, exchange) is the sole duplicate
// prevention mechanism.
type CandleRepository struct {
	pool DatabasePool
}

// NewCandleRepository creates a new candle repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*CandleRepository: The initialized repository.
func NewCandleRepository(pool DatabasePool) *CandleRepository {
	return &CandleRepository{pool: pool}
}

const insertCandleQuery = `
	INSERT INTO candles (symbol, interval_code, open_time, open_price, high_price, low_price, close_price, volume, close_time, exchange)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (symbol, interval_code, open_time, exchange) DO NOTHING
`

// PersistCandles inserts a candle batch idempotently and returns the number
// of newly inserted rows. Existing bars are left untouched (first write
// wins), so redelivered messages and overlapping fetch windows are no-ops.
// Close time is derived from the open time and the interval width, never
// taken from the input.
//
// The insert is a single atomic statement per candle: concurrent writers for
// the same (symbol, interval, openTime, exchange) have exactly one winner,
// decided by the storage engine rather than an application-level
// exists-then-insert pair.
func (r *CandleRepository) PersistCandles(ctx context.Context, candles []models.Candle, symbol, intervalCode, exchange string) (int, error) {
	interval, err := models.ParseInterval(intervalCode)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, c := range candles {
		closeTime := c.OpenTime + interval.Millis()
		tag, err := r.pool.Exec(ctx, insertCandleQuery,
			symbol, intervalCode, c.OpenTime,
			c.Open, c.High, c.Low, c.Close, c.Volume,
			closeTime, exchange,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert candle %s/%s@%d: %w", symbol, intervalCode, c.OpenTime, err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// CandleQuery describes a candle read. Start and End bound the open time in
// milliseconds; Exchange filters to one venue when non-empty.
type CandleQuery struct {
	Symbol       string
	IntervalCode string
	Limit        int
	StartTime    int64
	EndTime      int64
	Exchange     string
}

// FindCandles reads stored candles ordered by open time descending, limited
// to the query limit.
func (r *CandleRepository) FindCandles(ctx context.Context, q CandleQuery) ([]models.Candle, error) {
	query := `
		SELECT symbol, interval_code, open_time, open_price, high_price, low_price, close_price, volume, close_time, exchange
		FROM candles
		WHERE symbol = $1 AND interval_code = $2 AND open_time BETWEEN $3 AND $4
	`
	args := []interface{}{q.Symbol, q.IntervalCode, q.StartTime, q.EndTime}

	if q.Exchange != "" {
		query += ` AND exchange = $5 ORDER BY open_time DESC LIMIT $6`
		args = append(args, q.Exchange, q.Limit)
	} else {
		query += ` ORDER BY open_time DESC LIMIT $5`
		args = append(args, q.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.IntervalCode, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.CloseTime, &c.Exchange); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	return candles, rows.Err()
}

// DistinctIntervals returns the interval codes with at least one stored
// candle for the symbol.
func (r *CandleRepository) DistinctIntervals(ctx context.Context, symbol string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT interval_code FROM candles WHERE symbol = $1 ORDER BY interval_code`,
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct intervals: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan interval code: %w", err)
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}
