package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/models"
)

const (
	mexcDefaultBaseURL = "https://api.mexc.com"
	mexcMaxLimit       = 1000
)

// MexcProvider fetches spot klines from the MEXC REST API.
// MEXC mirrors the Binance kline endpoint shape but ships no Go SDK, so the
// payload is decoded from the raw positional arrays.
type MexcProvider struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewMexcProvider creates a MEXC candle provider.
//
// Parameters:
//
//	baseURL: API base URL, empty for the production endpoint.
//	timeout: HTTP timeout for kline requests.
//	log: Logger instance.
//
// Returns:
//
//	*MexcProvider: Initialized provider.
func NewMexcProvider(baseURL string, timeout time.Duration, log *logrus.Logger) *MexcProvider {
	if baseURL == "" {
		baseURL = mexcDefaultBaseURL
	}
	return &MexcProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Name returns the exchange identifier.
func (p *MexcProvider) Name() string {
	return ExchangeMexc
}

// GetCandles fetches up to limit klines for the symbol and interval.
func (p *MexcProvider) GetCandles(ctx context.Context, symbol string, interval models.CandleInterval, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > mexcMaxLimit {
		limit = mexcMaxLimit
	}

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", p.baseURL, url.Values{
		"symbol":   {symbol},
		"interval": {interval.Code},
		"limit":    {strconv.Itoa(limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.FetchError{Exchange: ExchangeMexc, Symbol: symbol, Err: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &models.FetchError{Exchange: ExchangeMexc, Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.FetchError{Exchange: ExchangeMexc, Symbol: symbol, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.FetchError{
			Exchange: ExchangeMexc,
			Symbol:   symbol,
			Err:      fmt.Errorf("klines request returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &models.PayloadError{Exchange: ExchangeMexc, Detail: fmt.Sprintf("klines response is not an array of arrays: %v", err)}
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := p.toCandle(row, symbol, interval.Code)
		if err != nil {
			return nil, &models.PayloadError{Exchange: ExchangeMexc, Detail: fmt.Sprintf("kline row %d: %v", i, err)}
		}
		candles = append(candles, candle)
	}

	p.log.WithFields(logrus.Fields{
		"exchange": ExchangeMexc,
		"symbol":   symbol,
		"interval": interval.Code,
		"count":    len(candles),
	}).Debug("Fetched klines")

	return candles, nil
}

// toCandle decodes one positional kline row:
// [openTime, open, high, low, close, volume, closeTime, ...].
func (p *MexcProvider) toCandle(row []any, symbol, intervalCode string) (models.Candle, error) {
	if len(row) < 7 {
		return models.Candle{}, fmt.Errorf("expected at least 7 fields, got %d", len(row))
	}

	openTime, err := klineMillis(row[0])
	if err != nil {
		return models.Candle{}, fmt.Errorf("open time: %w", err)
	}
	closeTime, err := klineMillis(row[6])
	if err != nil {
		return models.Candle{}, fmt.Errorf("close time: %w", err)
	}

	prices := make([]decimal.Decimal, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := 0; i < 5; i++ {
		prices[i], err = klineDecimal(row[i+1])
		if err != nil {
			return models.Candle{}, fmt.Errorf("%s: %w", names[i], err)
		}
	}

	return models.Candle{
		Symbol:       symbol,
		IntervalCode: intervalCode,
		Exchange:     ExchangeMexc,
		OpenTime:     openTime,
		CloseTime:    closeTime,
		Open:         prices[0],
		High:         prices[1],
		Low:          prices[2],
		Close:        prices[3],
		Volume:       prices[4],
	}, nil
}

func klineMillis(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case json.Number:
		return t.Int64()
	default:
		return 0, fmt.Errorf("expected numeric timestamp, got %T", v)
	}
}

func klineDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("expected price string, got %T", v)
	}
}
