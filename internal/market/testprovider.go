package market

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ohlcx/candlefeed/internal/models"
)

// TestProvider generates deterministic synthetic candles without touching any
// live venue. A given (symbol, interval, bucket) always produces the same
// candle, consecutive candles form a continuous walk (each open equals the
// previous close), and OHLC values are always internally consistent.
type TestProvider struct {
	// now is swappable for tests that need a fixed clock.
	now func() time.Time
}

// NewTestProvider creates a synthetic candle provider.
func NewTestProvider() *TestProvider {
	return &TestProvider{now: time.Now}
}

// Name returns the exchange identifier.
func (p *TestProvider) Name() string {
	return ExchangeTest
}

// GetCandles returns limit synthetic candles ending at the current interval
// bucket, oldest first. Open times are aligned to interval boundaries.
func (p *TestProvider) GetCandles(_ context.Context, symbol string, interval models.CandleInterval, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 1
	}

	intervalMillis := interval.Millis()
	currentBucket := p.now().UnixMilli() / intervalMillis
	firstBucket := currentBucket - int64(limit) + 1

	candles := make([]models.Candle, 0, limit)
	prevClose := syntheticPrice(symbol, firstBucket-1)
	for bucket := firstBucket; bucket <= currentBucket; bucket++ {
		open := prevClose
		closePrice := syntheticPrice(symbol, bucket)

		high := decimal.Max(open, closePrice).Mul(decimal.NewFromFloat(1.001))
		low := decimal.Min(open, closePrice).Mul(decimal.NewFromFloat(0.999))
		volume := decimal.NewFromInt(int64(bucketHash(symbol, bucket)%9000 + 1000))

		openTime := bucket * intervalMillis
		candles = append(candles, models.Candle{
			Symbol:       symbol,
			IntervalCode: interval.Code,
			Exchange:     ExchangeTest,
			OpenTime:     openTime,
			CloseTime:    openTime + intervalMillis,
			Open:         open,
			High:         high,
			Low:          low,
			Close:        closePrice,
			Volume:       volume,
		})
		prevClose = closePrice
	}

	return candles, nil
}

// syntheticPrice derives a stable price for (symbol, bucket). The base price
// depends only on the symbol and each bucket nudges it by at most ±5%.
func syntheticPrice(symbol string, bucket int64) decimal.Decimal {
	base := decimal.NewFromInt(int64(bucketHash(symbol, 0)%99000 + 1000))
	drift := int64(bucketHash(symbol, bucket)%1001) - 500
	factor := decimal.NewFromInt(10000 + drift).Div(decimal.NewFromInt(10000))
	return base.Mul(factor).Round(8)
}

func bucketHash(symbol string, bucket int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(bucket >> (8 * i))
	}
	h.Write(buf[:])
	return h.Sum64()
}
