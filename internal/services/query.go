package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/cache"
	"github.com/ohlcx/candlefeed/internal/database"
	"github.com/ohlcx/candlefeed/internal/models"
)

// CandleReader reads stored candles.
type CandleReader interface {
	FindCandles(ctx context.Context, q database.CandleQuery) ([]models.Candle, error)
	DistinctIntervals(ctx context.Context, symbol string) ([]string, error)
}

// CandleCache caches candle query results under canonical keys.
type CandleCache interface {
	Get(ctx context.Context, key string) ([]models.CandleResponse, bool)
	Set(ctx context.Context, key string, candles []models.CandleResponse)
}

// CandleQueryRequest is one candle read with optional window and venue filters.
type CandleQueryRequest struct {
	Symbol       string
	IntervalCode string
	Limit        int
	StartTime    *int64
	EndTime      *int64
	Exchange     string
}

// QueryService serves candle reads cache-aside. Every query is validated
// against the current scheduler config before storage is touched: a pair or
// interval outside the enabled sets is not found, even when rows for it exist.
type QueryService struct {
	reader       CandleReader
	cache        CandleCache
	configSource SchedulerConfigSource
	log          *logrus.Logger
}

// NewQueryService creates a candle query service.
//
// Parameters:
//
//	reader: Candle storage reader.
//	cache: Candle response cache.
//	configSource: Source of enabled pairs and intervals.
//	log: Logger instance.
//
// Returns:
//
//	*QueryService: Initialized service.
func NewQueryService(reader CandleReader, cache CandleCache, configSource SchedulerConfigSource, log *logrus.Logger) *QueryService {
	return &QueryService{
		reader:       reader,
		cache:        cache,
		configSource: configSource,
		log:          log,
	}
}

// GetCandles returns candles for the pair and interval, newest first. The
// pair is stored uppercase and the exchange lowercase, so both are folded to
// that form before the cache key is built and storage is read.
func (s *QueryService) GetCandles(ctx context.Context, req CandleQueryRequest) ([]models.CandleResponse, error) {
	if req.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrValidation)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	exchange := strings.ToLower(strings.TrimSpace(req.Exchange))

	cfg, err := s.configSource.SchedulerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("configuration unavailable: %w", err)
	}
	if !cfg.HasPair(symbol) {
		return nil, fmt.Errorf("%w: pair %s is not enabled", models.ErrNotFound, symbol)
	}
	if !cfg.HasInterval(req.IntervalCode) {
		return nil, fmt.Errorf("%w: interval %s is not enabled", models.ErrNotFound, req.IntervalCode)
	}

	key := cache.CandleCacheKey(symbol, req.IntervalCode, req.Limit, req.StartTime, req.EndTime, exchange)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	query := database.CandleQuery{
		Symbol:       symbol,
		IntervalCode: req.IntervalCode,
		Limit:        req.Limit,
		StartTime:    0,
		EndTime:      math.MaxInt64,
		Exchange:     exchange,
	}
	if req.StartTime != nil {
		query.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		query.EndTime = *req.EndTime
	}

	candles, err := s.reader.FindCandles(ctx, query)
	if err != nil {
		return nil, err
	}

	responses := make([]models.CandleResponse, 0, len(candles))
	for i := range candles {
		responses = append(responses, candles[i].ToResponse())
	}

	s.cache.Set(ctx, key, responses)
	return responses, nil
}

// GetAvailableIntervals returns the interval codes with stored candles for
// the pair. The pair itself must be enabled.
func (s *QueryService) GetAvailableIntervals(ctx context.Context, symbol string) ([]string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cfg, err := s.configSource.SchedulerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("configuration unavailable: %w", err)
	}
	if !cfg.HasPair(symbol) {
		return nil, fmt.Errorf("%w: pair %s is not enabled", models.ErrNotFound, symbol)
	}

	return s.reader.DistinctIntervals(ctx, symbol)
}
