package market

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/models"
)

// Exchange identifiers accepted by the selector.
const (
	ExchangeBinance = "binance"
	ExchangeMexc    = "mexc"
	ExchangeTest    = "test"
)

// CandleProvider fetches OHLCV candles from a single venue.
type CandleProvider interface {
	// GetCandles returns up to limit most recent candles for the symbol
	// and interval, oldest first.
	GetCandles(ctx context.Context, symbol string, interval models.CandleInterval, limit int) ([]models.Candle, error)

	// Name returns the exchange identifier of this provider.
	Name() string
}

// Selector resolves an exchange name to a registered provider.
type Selector struct {
	providers   map[string]CandleProvider
	testingMode bool
	log         *logrus.Logger
}

// NewSelector creates a provider selector.
//
// Parameters:
//
//	testingMode: When true every lookup resolves to the synthetic provider.
//	log: Logger instance.
//
// Returns:
//
//	*Selector: Selector with no providers registered.
func NewSelector(testingMode bool, log *logrus.Logger) *Selector {
	return &Selector{
		providers:   make(map[string]CandleProvider),
		testingMode: testingMode,
		log:         log,
	}
}

// Register adds a provider under its own name.
func (s *Selector) Register(p CandleProvider) {
	s.providers[strings.ToLower(p.Name())] = p
}

// Resolve returns the provider for the given exchange name.
// Unknown names yield an UnsupportedExchangeError. In testing mode the
// synthetic provider is returned for every name so no live venue is hit.
func (s *Selector) Resolve(exchange string) (CandleProvider, error) {
	name := strings.ToLower(strings.TrimSpace(exchange))

	if s.testingMode {
		if p, ok := s.providers[ExchangeTest]; ok {
			if name != ExchangeTest {
				s.log.WithField("exchange", name).Debug("Testing mode active, using synthetic provider")
			}
			return p, nil
		}
	}

	p, ok := s.providers[name]
	if !ok {
		return nil, &models.UnsupportedExchangeError{Exchange: exchange}
	}
	return p, nil
}
