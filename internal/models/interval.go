package models

import (
	"fmt"
	"strings"
	"time"
)

// CandleInterval is a sampling bucket width for OHLCV data.
type CandleInterval struct {
	// Code is the wire representation of the interval (e.g. "1m", "1h").
	Code string
	// Seconds is the bucket width in seconds.
	Seconds int64
}

// Duration returns the bucket width as a time.Duration.
func (ci CandleInterval) Duration() time.Duration {
	return time.Duration(ci.Seconds) * time.Second
}

// Millis returns the bucket width in milliseconds.
func (ci CandleInterval) Millis() int64 {
	return ci.Seconds * 1000
}

// Supported candle intervals. The set mirrors the intervals the venues
// themselves expose; whether an interval is enabled for scheduling is decided
// by the config registry, never here.
var (
	Interval1m  = CandleInterval{Code: "1m", Seconds: 60}
	Interval3m  = CandleInterval{Code: "3m", Seconds: 180}
	Interval5m  = CandleInterval{Code: "5m", Seconds: 300}
	Interval15m = CandleInterval{Code: "15m", Seconds: 900}
	Interval30m = CandleInterval{Code: "30m", Seconds: 1800}
	Interval1h  = CandleInterval{Code: "1h", Seconds: 3600}
	Interval2h  = CandleInterval{Code: "2h", Seconds: 7200}
	Interval4h  = CandleInterval{Code: "4h", Seconds: 14400}
	Interval1d  = CandleInterval{Code: "1d", Seconds: 86400}
	Interval1w  = CandleInterval{Code: "1w", Seconds: 604800}
	Interval1M  = CandleInterval{Code: "1M", Seconds: 2592000}
)

// AllIntervals lists every supported interval in ascending bucket order.
var AllIntervals = []CandleInterval{
	Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval2h, Interval4h, Interval1d, Interval1w, Interval1M,
}

// ParseInterval resolves an interval code to a CandleInterval.
// Matching is case-insensitive except for the 1-month code, which collides
// with 1-minute when lowercased, so an exact match wins first.
func ParseInterval(code string) (CandleInterval, error) {
	for _, ci := range AllIntervals {
		if ci.Code == code {
			return ci, nil
		}
	}
	for _, ci := range AllIntervals {
		if strings.EqualFold(ci.Code, code) {
			return ci, nil
		}
	}
	return CandleInterval{}, fmt.Errorf("%w: invalid candle interval code %q", ErrValidation, code)
}
