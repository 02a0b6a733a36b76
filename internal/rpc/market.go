package rpc

import (
	"context"
	"time"

	"github.com/ohlcx/candlefeed/internal/models"
)

// CandleRequest asks for stored candles of one pair and interval.
type CandleRequest struct {
	Symbol       string `json:"symbol"`
	IntervalCode string `json:"interval"`
	Limit        int    `json:"limit"`
	StartTime    *int64 `json:"startTime,omitempty"`
	EndTime      *int64 `json:"endTime,omitempty"`
	Exchange     string `json:"exchange,omitempty"`
}

// CandleResponse wraps the candle list returned by the market data endpoint.
type CandleResponse struct {
	Candles []models.CandleResponse `json:"candles"`
}

// MarketClient calls the market data endpoints.
type MarketClient struct {
	client *Client
}

// NewMarketClient creates a market data RPC client.
//
// Parameters:
//
//	baseURL: Base URL of the market data service.
//	apiKey: Pre-shared key sent in X-API-Key.
//	timeout: HTTP timeout, zero for the default.
//
// Returns:
//
//	*MarketClient: Initialized client.
func NewMarketClient(baseURL, apiKey string, timeout time.Duration) *MarketClient {
	return &MarketClient{client: NewClient(baseURL, apiKey, timeout)}
}

// GetCandles fetches stored candles, newest first.
func (c *MarketClient) GetCandles(ctx context.Context, req CandleRequest) ([]models.CandleResponse, error) {
	var resp CandleResponse
	if err := c.client.makeRequest(ctx, "POST", "/api/v1/rpc/market/candles", req, &resp); err != nil {
		return nil, err
	}
	return resp.Candles, nil
}
