package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohlcx/candlefeed/internal/models"
)

// MockPoolAdapter wraps pgxmock.PgxPoolIface to implement DatabasePool interface
type MockPoolAdapter struct {
	mock pgxmock.PgxPoolIface
}

func NewMockPoolAdapter(mock pgxmock.PgxPoolIface) DatabasePool {
	return &MockPoolAdapter{mock: mock}
}

func (m *MockPoolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return m.mock.QueryRow(ctx, sql, args...)
}

func (m *MockPoolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	result, err := m.mock.Exec(ctx, sql, args...)
	if err == nil {
		rows := result.RowsAffected()
		return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", rows)), nil
	}
	return pgconn.CommandTag{}, err
}

func (m *MockPoolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return m.mock.Query(ctx, sql, args...)
}

func testCandle(openTime int64) models.Candle {
	return models.Candle{
		Symbol:       "BTCUSDT",
		IntervalCode: "1m",
		Exchange:     "binance",
		OpenTime:     openTime,
		CloseTime:    openTime + 59_999,
		Open:         decimal.NewFromInt(100),
		High:         decimal.NewFromInt(110),
		Low:          decimal.NewFromInt(95),
		Close:        decimal.NewFromInt(105),
		Volume:       decimal.NewFromInt(42),
	}
}

func TestCandleRepository_PersistCandles_CountsOnlyNewRows(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewCandleRepository(NewMockPoolAdapter(mockPool))

	// First candle is new, second one conflicts with an existing row.
	mockPool.ExpectExec(`INSERT INTO candles`).
		WithArgs("BTCUSDT", "1m", int64(60_000),
			decimal.NewFromInt(100), decimal.NewFromInt(110), decimal.NewFromInt(95), decimal.NewFromInt(105), decimal.NewFromInt(42),
			int64(120_000), "binance").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectExec(`INSERT INTO candles`).
		WithArgs("BTCUSDT", "1m", int64(120_000),
			decimal.NewFromInt(100), decimal.NewFromInt(110), decimal.NewFromInt(95), decimal.NewFromInt(105), decimal.NewFromInt(42),
			int64(180_000), "binance").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	candles := []models.Candle{testCandle(60_000), testCandle(120_000)}
	inserted, err := repo.PersistCandles(context.Background(), candles, "BTCUSDT", "1m", "binance")
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCandleRepository_PersistCandles_AllDuplicates(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewCandleRepository(NewMockPoolAdapter(mockPool))

	for _, openTime := range []int64{60_000, 120_000, 180_000} {
		mockPool.ExpectExec(`INSERT INTO candles`).
			WithArgs("BTCUSDT", "1m", openTime,
				decimal.NewFromInt(100), decimal.NewFromInt(110), decimal.NewFromInt(95), decimal.NewFromInt(105), decimal.NewFromInt(42),
				openTime+60_000, "binance").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
	}

	candles := []models.Candle{testCandle(60_000), testCandle(120_000), testCandle(180_000)}
	inserted, err := repo.PersistCandles(context.Background(), candles, "BTCUSDT", "1m", "binance")
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCandleRepository_PersistCandles_InvalidInterval(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewCandleRepository(NewMockPoolAdapter(mockPool))

	_, err = repo.PersistCandles(context.Background(), []models.Candle{testCandle(0)}, "BTCUSDT", "99z", "binance")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCandleRepository_FindCandles(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewCandleRepository(NewMockPoolAdapter(mockPool))

	rows := pgxmock.NewRows([]string{
		"symbol", "interval_code", "open_time", "open_price", "high_price", "low_price", "close_price", "volume", "close_time", "exchange",
	}).AddRow(
		"BTCUSDT", "1m", int64(120_000),
		decimal.NewFromInt(100), decimal.NewFromInt(110), decimal.NewFromInt(95), decimal.NewFromInt(105), decimal.NewFromInt(42),
		int64(180_000), "binance",
	)
	mockPool.ExpectQuery(`SELECT symbol, interval_code, open_time`).
		WithArgs("BTCUSDT", "1m", int64(0), int64(200_000), "binance", 10).
		WillReturnRows(rows)

	candles, err := repo.FindCandles(context.Background(), CandleQuery{
		Symbol:       "BTCUSDT",
		IntervalCode: "1m",
		Limit:        10,
		StartTime:    0,
		EndTime:      200_000,
		Exchange:     "binance",
	})
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(120_000), candles[0].OpenTime)
	assert.Equal(t, "binance", candles[0].Exchange)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCandleRepository_DistinctIntervals(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewCandleRepository(NewMockPoolAdapter(mockPool))

	rows := pgxmock.NewRows([]string{"interval_code"}).AddRow("1h").AddRow("1m")
	mockPool.ExpectQuery(`SELECT DISTINCT interval_code`).
		WithArgs("BTCUSDT").
		WillReturnRows(rows)

	intervals, err := repo.DistinctIntervals(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"1h", "1m"}, intervals)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
