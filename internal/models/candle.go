package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is one OHLCV sample for a fixed time bucket of a trading pair on a
// single exchange. Candles are immutable once written: the store enforces a
// uniqueness constraint on (symbol, interval_code, open_time, exchange) and
// the first write always wins.
type Candle struct {
	ID           string          `json:"id,omitempty" db:"id"`
	Symbol       string          `json:"symbol" db:"symbol"`
	IntervalCode string          `json:"interval" db:"interval_code"`
	OpenTime     int64           `json:"openTime" db:"open_time"`
	Open         decimal.Decimal `json:"open" db:"open_price"`
	High         decimal.Decimal `json:"high" db:"high_price"`
	Low          decimal.Decimal `json:"low" db:"low_price"`
	Close        decimal.Decimal `json:"close" db:"close_price"`
	Volume       decimal.Decimal `json:"volume" db:"volume"`
	CloseTime    int64           `json:"closeTime" db:"close_time"`
	Exchange     string          `json:"exchange" db:"exchange"`
	CreatedAt    time.Time       `json:"-" db:"created_at"`
}

// OpenedAt returns the candle open time as a time.Time.
func (c *Candle) OpenedAt() time.Time {
	return time.UnixMilli(c.OpenTime)
}

// CandleResponse is the wire shape for candle reads. OHLCV values are decimal
// strings so callers never see float rounding artifacts.
type CandleResponse struct {
	Symbol       string `json:"symbol"`
	IntervalCode string `json:"interval"`
	OpenTime     int64  `json:"openTime"`
	Open         string `json:"open"`
	High         string `json:"high"`
	Low          string `json:"low"`
	Close        string `json:"close"`
	Volume       string `json:"volume"`
	CloseTime    int64  `json:"closeTime"`
	Exchange     string `json:"exchange"`
}

// ToResponse converts a stored candle to its wire shape.
func (c *Candle) ToResponse() CandleResponse {
	return CandleResponse{
		Symbol:       c.Symbol,
		IntervalCode: c.IntervalCode,
		OpenTime:     c.OpenTime,
		Open:         c.Open.String(),
		High:         c.High.String(),
		Low:          c.Low.String(),
		Close:        c.Close.String(),
		Volume:       c.Volume.String(),
		CloseTime:    c.CloseTime,
		Exchange:     c.Exchange,
	}
}
