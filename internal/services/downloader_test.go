package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohlcx/candlefeed/internal/market"
	"github.com/ohlcx/candlefeed/internal/models"
)

type stubProvider struct {
	name     string
	candles  []models.Candle
	err      error
	attempts int
}

func (p *stubProvider) Name() string {
	if p.name == "" {
		return "stub"
	}
	return p.name
}

func (p *stubProvider) GetCandles(context.Context, string, models.CandleInterval, int) ([]models.Candle, error) {
	p.attempts++
	if p.err != nil {
		return nil, p.err
	}
	return p.candles, nil
}

type recordingPersister struct {
	calls    int
	inserted int
	err      error
	candles  []models.Candle
}

func (r *recordingPersister) PersistCandles(_ context.Context, candles []models.Candle, _, _, _ string) (int, error) {
	r.calls++
	r.candles = candles
	if r.err != nil {
		return 0, r.err
	}
	return r.inserted, nil
}

type recordingInvalidator struct {
	calls int
}

func (r *recordingInvalidator) InvalidateAll(context.Context) error {
	r.calls++
	return nil
}

func stubCandles(n int) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Symbol:       "BTCUSDT",
			IntervalCode: "1m",
			OpenTime:     int64(i) * 60_000,
			Open:         decimal.NewFromInt(100),
			High:         decimal.NewFromInt(110),
			Low:          decimal.NewFromInt(95),
			Close:        decimal.NewFromInt(105),
			Volume:       decimal.NewFromInt(1),
		}
	}
	return candles
}

func newDownloadFixture(t *testing.T, provider *stubProvider, persister *recordingPersister) (*DownloadService, *recordingInvalidator, *[]time.Duration) {
	t.Helper()
	selector := market.NewSelector(false, testLogger())
	selector.Register(provider)

	invalidator := &recordingInvalidator{}
	svc := NewDownloadService(selector, persister, invalidator, 3, 2*time.Second, testLogger())

	var sleeps []time.Duration
	svc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return svc, invalidator, &sleeps
}

func TestDownloadService_SuccessfulDownload(t *testing.T) {
	provider := &stubProvider{candles: stubCandles(3)}
	persister := &recordingPersister{inserted: 3}
	svc, invalidator, _ := newDownloadFixture(t, provider, persister)

	inserted, err := svc.Download(context.Background(), "BTCUSDT", "1m", 3, "stub")
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, 1, provider.attempts)
	assert.Equal(t, 1, persister.calls)
	assert.Equal(t, 1, invalidator.calls)
}

func TestDownloadService_EvictsCacheEvenWhenAllRowsExisted(t *testing.T) {
	provider := &stubProvider{candles: stubCandles(3)}
	persister := &recordingPersister{inserted: 0}
	svc, invalidator, _ := newDownloadFixture(t, provider, persister)

	inserted, err := svc.Download(context.Background(), "BTCUSDT", "1m", 3, "stub")
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 1, invalidator.calls, "persist success must evict the cache regardless of insert count")
}

func TestDownloadService_RetriesThenAbandons(t *testing.T) {
	provider := &stubProvider{err: errors.New("venue timeout")}
	persister := &recordingPersister{}
	svc, invalidator, sleeps := newDownloadFixture(t, provider, persister)

	_, err := svc.Download(context.Background(), "BTCUSDT", "1m", 1, "stub")
	require.Error(t, err)

	assert.Equal(t, 3, provider.attempts)
	// Backoff runs between attempts, not after the last one.
	require.Len(t, *sleeps, 2)
	for _, d := range *sleeps {
		assert.Equal(t, 2*time.Second, d)
	}
	assert.Zero(t, persister.calls)
	assert.Zero(t, invalidator.calls)
}

func TestDownloadService_RecoversOnSecondAttempt(t *testing.T) {
	provider := &stubProvider{err: errors.New("venue timeout")}
	persister := &recordingPersister{inserted: 1}
	svc, _, sleeps := newDownloadFixture(t, provider, persister)

	// Fail once, then succeed.
	svc.sleep = func(time.Duration) {
		*sleeps = append(*sleeps, 0)
		provider.err = nil
		provider.candles = stubCandles(1)
	}

	inserted, err := svc.Download(context.Background(), "BTCUSDT", "1m", 1, "stub")
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 2, provider.attempts)
}

func TestDownloadService_UnknownExchange(t *testing.T) {
	provider := &stubProvider{candles: stubCandles(1)}
	svc, _, _ := newDownloadFixture(t, provider, &recordingPersister{})

	_, err := svc.Download(context.Background(), "BTCUSDT", "1m", 1, "dogecoinex")
	require.Error(t, err)
	assert.True(t, models.IsUnsupportedExchangeError(err))
	assert.Zero(t, provider.attempts)
}

func TestDownloadService_InvalidInterval(t *testing.T) {
	provider := &stubProvider{candles: stubCandles(1)}
	svc, _, _ := newDownloadFixture(t, provider, &recordingPersister{})

	_, err := svc.Download(context.Background(), "BTCUSDT", "bogus", 1, "stub")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDownloadService_DefaultLimit(t *testing.T) {
	provider := &stubProvider{candles: stubCandles(1)}
	persister := &recordingPersister{inserted: 1}
	svc, _, _ := newDownloadFixture(t, provider, persister)

	err := svc.HandleFetchRequest(context.Background(), &models.FetchRequest{
		RequestID: "req-1",
		PriceObject: models.PriceObject{
			Pair:     "BTCUSDT",
			Interval: "1m",
			Limit:    0,
			Exchange: "stub",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, persister.calls)
}
