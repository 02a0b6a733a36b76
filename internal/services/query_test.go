package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohlcx/candlefeed/internal/database"
	"github.com/ohlcx/candlefeed/internal/models"
)

type stubReader struct {
	candles   []models.Candle
	intervals []string
	calls      int
	lastQuery  database.CandleQuery
	lastSymbol string
}

func (r *stubReader) FindCandles(_ context.Context, q database.CandleQuery) ([]models.Candle, error) {
	r.calls++
	r.lastQuery = q
	return r.candles, nil
}

func (r *stubReader) DistinctIntervals(_ context.Context, symbol string) ([]string, error) {
	r.lastSymbol = symbol
	return r.intervals, nil
}

type mapCache struct {
	entries map[string][]models.CandleResponse
	gets    int
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]models.CandleResponse)}
}

func (m *mapCache) Get(_ context.Context, key string) ([]models.CandleResponse, bool) {
	m.gets++
	entry, ok := m.entries[key]
	return entry, ok
}

func (m *mapCache) Set(_ context.Context, key string, candles []models.CandleResponse) {
	m.sets++
	m.entries[key] = candles
}

func newQueryFixture(reader *stubReader) (*QueryService, *mapCache) {
	cache := newMapCache()
	svc := NewQueryService(reader, cache, &stubConfigSource{cfg: twoPairConfig()}, testLogger())
	return svc, cache
}

func TestQueryService_CacheAside(t *testing.T) {
	reader := &stubReader{candles: stubCandles(2)}
	svc, cache := newQueryFixture(reader)
	ctx := context.Background()

	req := CandleQueryRequest{Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 10}

	first, err := svc.GetCandles(ctx, req)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.GetCandles(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls, "second read must be served from cache")
}

func TestQueryService_DisabledPairIsNotFoundEvenWithRows(t *testing.T) {
	reader := &stubReader{candles: stubCandles(5)}
	svc, _ := newQueryFixture(reader)

	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "DOGEUSDT", IntervalCode: "1m", Limit: 10,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, reader.calls, "storage must not be touched for disabled pairs")
}

func TestQueryService_DisabledIntervalIsNotFound(t *testing.T) {
	reader := &stubReader{candles: stubCandles(5)}
	svc, _ := newQueryFixture(reader)

	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1d", Limit: 10,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, reader.calls)
}

func TestQueryService_WindowDefaults(t *testing.T) {
	reader := &stubReader{}
	svc, _ := newQueryFixture(reader)

	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), reader.lastQuery.StartTime)
	assert.Equal(t, int64(1<<63-1), reader.lastQuery.EndTime)
}

func TestQueryService_ExplicitWindowPassedThrough(t *testing.T) {
	reader := &stubReader{}
	svc, _ := newQueryFixture(reader)

	start, end := int64(1000), int64(2000)
	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 10,
		StartTime: &start, EndTime: &end, Exchange: "mexc",
	})
	require.NoError(t, err)
	assert.Equal(t, start, reader.lastQuery.StartTime)
	assert.Equal(t, end, reader.lastQuery.EndTime)
	assert.Equal(t, "mexc", reader.lastQuery.Exchange)
}

func TestQueryService_CanonicalizesSymbolAndExchange(t *testing.T) {
	reader := &stubReader{candles: stubCandles(1)}
	svc, _ := newQueryFixture(reader)
	ctx := context.Background()

	first, err := svc.GetCandles(ctx, CandleQueryRequest{
		Symbol: "btcusdt", IntervalCode: "1m", Limit: 10, Exchange: "MEXC",
	})
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, "BTCUSDT", reader.lastQuery.Symbol, "storage reads use the stored uppercase pair")
	assert.Equal(t, "mexc", reader.lastQuery.Exchange, "storage reads use the stored lowercase exchange")

	// Casing variants share one cache entry.
	second, err := svc.GetCandles(ctx, CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 10, Exchange: "mexc",
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls)

	_, err = svc.GetAvailableIntervals(ctx, "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", reader.lastSymbol)
}

func TestQueryService_InvalidLimit(t *testing.T) {
	svc, _ := newQueryFixture(&stubReader{})

	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 0,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestQueryService_ConfigFailureBlocksReads(t *testing.T) {
	reader := &stubReader{candles: stubCandles(1)}
	svc := NewQueryService(reader, newMapCache(), &stubConfigSource{err: assert.AnError}, testLogger())

	_, err := svc.GetCandles(context.Background(), CandleQueryRequest{
		Symbol: "BTCUSDT", IntervalCode: "1m", Limit: 10,
	})
	assert.Error(t, err)
	assert.Zero(t, reader.calls)
}

func TestQueryService_GetAvailableIntervals(t *testing.T) {
	reader := &stubReader{intervals: []string{"1m", "1h"}}
	svc, _ := newQueryFixture(reader)

	intervals, err := svc.GetAvailableIntervals(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"1m", "1h"}, intervals)

	_, err = svc.GetAvailableIntervals(context.Background(), "DOGEUSDT")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
