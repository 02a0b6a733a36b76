package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/market"
	"github.com/ohlcx/candlefeed/internal/models"
)

// Default candle counts per trigger type. Scheduled ticks request a single
// bar; manual downloads and backfills pull wider windows.
const (
	DefaultDownloadLimit = 100
	DefaultBackfillLimit = 500
)

// CandlePersister writes fetched candles to durable storage.
type CandlePersister interface {
	PersistCandles(ctx context.Context, candles []models.Candle, symbol, intervalCode, exchange string) (int, error)
}

// CandleInvalidator drops cached candle query results.
type CandleInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

// DownloadService executes fetch requests end to end: resolve the venue
// provider, pull candles with bounded retries, persist idempotently, and
// invalidate the query cache after every successful persist.
type DownloadService struct {
	selector   *market.Selector
	persister  CandlePersister
	cache      CandleInvalidator
	maxRetries int
	backoff    time.Duration
	sleep      func(time.Duration)
	log        *logrus.Logger
}

// NewDownloadService creates a download service.
//
// Parameters:
//
//	selector: Venue provider selector.
//	persister: Candle storage.
//	cache: Candle query cache.
//	maxRetries: Fetch attempts before abandoning a request.
//	backoff: Fixed delay between fetch attempts.
//	log: Logger instance.
//
// Returns:
//
//	*DownloadService: Initialized service.
func NewDownloadService(selector *market.Selector, persister CandlePersister, cache CandleInvalidator, maxRetries int, backoff time.Duration, log *logrus.Logger) *DownloadService {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &DownloadService{
		selector:   selector,
		persister:  persister,
		cache:      cache,
		maxRetries: maxRetries,
		backoff:    backoff,
		sleep:      time.Sleep,
		log:        log,
	}
}

// HandleFetchRequest processes one dequeued fetch request.
func (s *DownloadService) HandleFetchRequest(ctx context.Context, req *models.FetchRequest) error {
	_, err := s.Download(ctx, req.PriceObject.Pair, req.PriceObject.Interval, req.PriceObject.Limit, req.PriceObject.Exchange)
	return err
}

// Download fetches and persists candles for one pair. It returns the number
// of candles newly inserted; rows already present count as success but not as
// inserts.
func (s *DownloadService) Download(ctx context.Context, symbol, intervalCode string, limit int, exchange string) (int, error) {
	interval, err := models.ParseInterval(intervalCode)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = DefaultDownloadLimit
	}

	provider, err := s.selector.Resolve(exchange)
	if err != nil {
		return 0, err
	}

	candles, err := s.fetchWithRetry(ctx, provider, symbol, interval, limit)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		s.log.WithFields(logrus.Fields{
			"symbol":   symbol,
			"interval": interval.Code,
			"exchange": provider.Name(),
		}).Warn("Venue returned no candles")
		return 0, nil
	}

	inserted, err := s.persister.PersistCandles(ctx, candles, symbol, interval.Code, provider.Name())
	if err != nil {
		return 0, err
	}

	// Every successful persist evicts the read cache, even when all rows
	// already existed. Eviction is coarse and cheap next to the fetch.
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warnf("Failed to invalidate candle cache: %v", err)
	}

	s.log.WithFields(logrus.Fields{
		"symbol":   symbol,
		"interval": interval.Code,
		"exchange": provider.Name(),
		"fetched":  len(candles),
		"inserted": inserted,
	}).Info("Download completed")
	return inserted, nil
}

// fetchWithRetry attempts the venue fetch up to maxRetries times with a fixed
// backoff between attempts.
func (s *DownloadService) fetchWithRetry(ctx context.Context, provider market.CandleProvider, symbol string, interval models.CandleInterval, limit int) ([]models.Candle, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		candles, err := provider.GetCandles(ctx, symbol, interval, limit)
		if err == nil {
			return candles, nil
		}
		lastErr = err

		s.log.WithFields(logrus.Fields{
			"symbol":   symbol,
			"interval": interval.Code,
			"exchange": provider.Name(),
			"attempt":  attempt,
		}).Warnf("Candle fetch failed: %v", err)

		if attempt < s.maxRetries {
			s.sleep(s.backoff)
		}
	}
	return nil, lastErr
}
