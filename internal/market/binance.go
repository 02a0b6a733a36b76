package market

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/models"
)

const binanceMaxLimit = 1000

// BinanceProvider fetches spot klines from Binance.
type BinanceProvider struct {
	client *binance.Client
	log    *logrus.Logger
}

// NewBinanceProvider creates a Binance candle provider.
//
// Parameters:
//
//	timeout: HTTP timeout for kline requests.
//	log: Logger instance.
//
// Returns:
//
//	*BinanceProvider: Initialized provider.
func NewBinanceProvider(timeout time.Duration, log *logrus.Logger) *BinanceProvider {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &BinanceProvider{client: client, log: log}
}

// Name returns the exchange identifier.
func (p *BinanceProvider) Name() string {
	return ExchangeBinance
}

// GetCandles fetches up to limit klines for the symbol and interval.
func (p *BinanceProvider) GetCandles(ctx context.Context, symbol string, interval models.CandleInterval, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	klines, err := p.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval.Code).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, &models.FetchError{Exchange: ExchangeBinance, Symbol: symbol, Err: err}
	}

	candles := make([]models.Candle, 0, len(klines))
	for _, kl := range klines {
		if kl == nil {
			continue
		}
		candle, err := p.toCandle(kl, symbol, interval.Code)
		if err != nil {
			return nil, &models.FetchError{Exchange: ExchangeBinance, Symbol: symbol, Err: err}
		}
		candles = append(candles, candle)
	}

	p.log.WithFields(logrus.Fields{
		"exchange": ExchangeBinance,
		"symbol":   symbol,
		"interval": interval.Code,
		"count":    len(candles),
	}).Debug("Fetched klines")

	return candles, nil
}

func (p *BinanceProvider) toCandle(kl *binance.Kline, symbol, intervalCode string) (models.Candle, error) {
	open, err := decimal.NewFromString(kl.Open)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse open price: %w", err)
	}
	high, err := decimal.NewFromString(kl.High)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse high price: %w", err)
	}
	low, err := decimal.NewFromString(kl.Low)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse low price: %w", err)
	}
	closePrice, err := decimal.NewFromString(kl.Close)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse close price: %w", err)
	}
	volume, err := decimal.NewFromString(kl.Volume)
	if err != nil {
		return models.Candle{}, fmt.Errorf("parse volume: %w", err)
	}

	return models.Candle{
		Symbol:       symbol,
		IntervalCode: intervalCode,
		Exchange:     ExchangeBinance,
		OpenTime:     kl.OpenTime,
		CloseTime:    kl.CloseTime,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       volume,
	}, nil
}
