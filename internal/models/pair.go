package models

import "time"

// SupportedPair is a trading pair row in the config registry. Only the
// registry's own admin interface mutates these; every other component reads
// them through the cached scheduler config.
type SupportedPair struct {
	ID         int64     `json:"id" db:"id"`
	Symbol     string    `json:"symbol" db:"symbol"`
	BaseAsset  string    `json:"base_asset" db:"base_asset"`
	QuoteAsset string    `json:"quote_asset" db:"quote_asset"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SupportedInterval is a sampling-interval row in the config registry.
type SupportedInterval struct {
	ID           int64     `json:"id" db:"id"`
	IntervalCode string    `json:"interval_code" db:"interval_code"`
	Enabled      bool      `json:"enabled" db:"enabled"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
