package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/models"
)

// FetchRequestPublisher enqueues fetch requests for asynchronous processing.
type FetchRequestPublisher interface {
	PublishFetchRequest(req *models.FetchRequest) error
}

// Scheduler runs one ticker per supported interval. On each tick it reads the
// enabled pair set and publishes a single-candle fetch request for every pair
// whose interval is enabled. A failed config read skips the whole tick; a
// failed publish for one pair is logged and the rest of the batch continues.
type Scheduler struct {
	configSource    SchedulerConfigSource
	publisher       FetchRequestPublisher
	defaultExchange string
	log             *logrus.Logger
}

// NewScheduler creates a fetch request scheduler.
//
// Parameters:
//
//	configSource: Source of enabled pairs and intervals.
//	publisher: Queue publisher for fetch requests.
//	defaultExchange: Venue used for scheduled fetches.
//	log: Logger instance.
//
// Returns:
//
//	*Scheduler: Initialized scheduler, not yet running.
func NewScheduler(configSource SchedulerConfigSource, publisher FetchRequestPublisher, defaultExchange string, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		configSource:    configSource,
		publisher:       publisher,
		defaultExchange: defaultExchange,
		log:             log,
	}
}

// Run starts one ticker goroutine per supported interval and blocks until the
// context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, interval := range models.AllIntervals {
		go s.runInterval(ctx, interval)
	}
	s.log.WithField("intervals", len(models.AllIntervals)).Info("Scheduler started")
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) runInterval(ctx context.Context, interval models.CandleInterval) {
	ticker := time.NewTicker(interval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, interval)
		}
	}
}

// Tick publishes one fetch request per enabled pair for the interval. It
// returns the number of requests published.
func (s *Scheduler) Tick(ctx context.Context, interval models.CandleInterval) int {
	cfg, err := s.configSource.SchedulerConfig(ctx)
	if err != nil {
		s.log.WithField("interval", interval.Code).Errorf("Skipping tick, config unavailable: %v", err)
		return 0
	}

	if !cfg.HasInterval(interval.Code) {
		return 0
	}

	published := 0
	for _, pair := range cfg.Pairs {
		req := &models.FetchRequest{
			RequestID: uuid.New().String(),
			PriceObject: models.PriceObject{
				Pair:     pair.Symbol,
				Interval: interval.Code,
				Limit:    1,
				Exchange: s.defaultExchange,
			},
			Timestamp: time.Now().UTC(),
		}

		if err := s.publisher.PublishFetchRequest(req); err != nil {
			s.log.WithFields(logrus.Fields{
				"pair":     pair.Symbol,
				"interval": interval.Code,
			}).Errorf("Failed to publish fetch request: %v", err)
			continue
		}
		published++
	}

	s.log.WithFields(logrus.Fields{
		"interval":  interval.Code,
		"published": published,
	}).Debug("Scheduler tick completed")
	return published
}
