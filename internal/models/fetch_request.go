package models

import "time"

// PriceObject describes one unit of fetch work: which pair, which bucket
// width, how many bars, from which venue.
type PriceObject struct {
	Pair     string `json:"pair"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
	Exchange string `json:"exchange"`
}

// FetchRequest is the queue message that decouples a download trigger from
// its execution. Messages are keyed by pair, so ordering is guaranteed only
// within a symbol; consumers must tolerate redelivery and reordering across
// different keys.
type FetchRequest struct {
	RequestID   string      `json:"requestId"`
	PriceObject PriceObject `json:"priceObject"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Key returns the partition key for the request. Keying by pair keeps
// per-symbol ordering without serializing unrelated symbols.
func (r *FetchRequest) Key() string {
	return r.PriceObject.Pair
}
