package models

import "strings"

// SchedulerPair is one enabled trading pair as published by the config registry.
type SchedulerPair struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// SchedulerInterval is one enabled sampling interval as published by the
// config registry.
type SchedulerInterval struct {
	IntervalCode string `json:"intervalCode"`
}

// SchedulerConfig is the read model the scheduler and query validation
// consume. It is the single source of truth for pair/interval availability;
// no component hardcodes either set.
type SchedulerConfig struct {
	Pairs     []SchedulerPair     `json:"pairs"`
	Intervals []SchedulerInterval `json:"intervals"`
}

// HasPair reports whether the symbol is in the enabled set (case-insensitive).
func (c *SchedulerConfig) HasPair(symbol string) bool {
	for _, p := range c.Pairs {
		if strings.EqualFold(p.Symbol, symbol) {
			return true
		}
	}
	return false
}

// HasInterval reports whether the interval code is in the enabled set.
// Interval codes are case-sensitive because 1m (minute) and 1M (month)
// are distinct buckets.
func (c *SchedulerConfig) HasInterval(code string) bool {
	for _, i := range c.Intervals {
		if i.IntervalCode == code {
			return true
		}
	}
	return false
}
