package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ohlcx/candlefeed/internal/models"
)

// SchedulerConfigSource supplies the enabled pair and interval sets.
type SchedulerConfigSource interface {
	SchedulerConfig(ctx context.Context) (*models.SchedulerConfig, error)
}

// ConfigClient fetches scheduler configuration from the config registry
// endpoint and memoizes it for a short TTL. The snapshot is a single small
// struct refreshed at most every few seconds, so it lives in process memory
// under a mutex rather than in Redis.
type ConfigClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	ttl        time.Duration
	log        *logrus.Logger

	mu        sync.Mutex
	snapshot  *models.SchedulerConfig
	fetchedAt time.Time
	flight    singleflight.Group
}

// NewConfigClient creates a scheduler config client.
//
// Parameters:
//
//	baseURL: Base URL of the config registry service.
//	apiKey: Pre-shared key sent in X-API-Key.
//	ttl: Snapshot lifetime before a refetch.
//	timeout: HTTP timeout for the registry call.
//	log: Logger instance.
//
// Returns:
//
//	*ConfigClient: Initialized client with an empty snapshot.
func NewConfigClient(baseURL, apiKey string, ttl, timeout time.Duration, log *logrus.Logger) *ConfigClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ConfigClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		ttl:        ttl,
		log:        log,
	}
}

// SchedulerConfig returns the current config snapshot, refetching it when the
// TTL has elapsed. A failed refetch is an error even when a stale snapshot
// exists: callers gate work on current config and must not act on stale data.
//
// The mutex guards only the snapshot fields. The network call runs outside it
// so a slow registry never serializes callers, and concurrent refreshes
// collapse into a single in-flight fetch.
func (c *ConfigClient) SchedulerConfig(ctx context.Context) (*models.SchedulerConfig, error) {
	c.mu.Lock()
	if c.snapshot != nil && time.Since(c.fetchedAt) < c.ttl {
		snapshot := c.snapshot
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	result, err, _ := c.flight.Do("scheduler-config", func() (interface{}, error) {
		cfg, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snapshot = cfg
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.SchedulerConfig), nil
}

func (c *ConfigClient) fetch(ctx context.Context) (*models.SchedulerConfig, error) {
	endpoint := c.baseURL + "/api/v1/internal/scheduler-config"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler config request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheduler config: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheduler config response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scheduler config request returned status %d", resp.StatusCode)
	}

	var cfg models.SchedulerConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode scheduler config: %w", err)
	}
	return &cfg, nil
}
