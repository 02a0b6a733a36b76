package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ohlcx/candlefeed/internal/models"
)

// CandleCacheStats is a snapshot of the cache performance counters.
type CandleCacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Sets      int64 `json:"sets"`
	Evictions int64 `json:"evictions"`
}

type cacheCounters struct {
	mu    sync.Mutex
	stats CandleCacheStats
}

// CandleCacheKey canonicalizes the query parameter tuple so that semantically
// identical queries share one cache entry. The symbol folds to uppercase and
// the exchange to lowercase, absent time bounds normalize to [0, MaxInt64]
// and an absent exchange to "default".
func CandleCacheKey(symbol, intervalCode string, limit int, startTime, endTime *int64, exchange string) string {
	start := int64(0)
	if startTime != nil {
		start = *startTime
	}
	end := int64(math.MaxInt64)
	if endTime != nil {
		end = *endTime
	}
	if exchange == "" {
		exchange = "default"
	}
	return fmt.Sprintf("%s:%s:%d:%d:%d:%s", strings.ToUpper(symbol), intervalCode, start, end, limit, strings.ToLower(exchange))
}

// RedisCandleCache is the TTL cache in front of the candle store. Eviction
// after a persist is coarse: the whole prefix is dropped, not individual
// keys.
type RedisCandleCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *cacheCounters
	prefix string
	log    *logrus.Entry
}

// NewRedisCandleCache creates a new Redis-based candle query cache.
func NewRedisCandleCache(redisClient *redis.Client, ttl time.Duration) *RedisCandleCache {
	return &RedisCandleCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &cacheCounters{},
		prefix: "candle_cache:",
		log:    logrus.WithField("component", "candle_cache"),
	}
}

// Get retrieves a cached candle response list for the canonical key.
func (c *RedisCandleCache) Get(ctx context.Context, key string) ([]models.CandleResponse, bool) {
	data, err := c.redis.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		c.miss()
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).Warn("Redis error reading candle cache")
		c.miss()
		return nil, false
	}

	var entry []models.CandleResponse
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.log.WithError(err).Warn("Error deserializing cached candles")
		c.miss()
		return nil, false
	}

	c.stats.mu.Lock()
	c.stats.stats.Hits++
	c.stats.mu.Unlock()
	return entry, true
}

// Set stores a candle response list under the canonical key with the cache TTL.
func (c *RedisCandleCache) Set(ctx context.Context, key string, candles []models.CandleResponse) {
	data, err := json.Marshal(candles)
	if err != nil {
		c.log.WithError(err).Warn("Error serializing candles for cache")
		return
	}
	if err := c.redis.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Redis error writing candle cache")
		return
	}
	c.stats.mu.Lock()
	c.stats.stats.Sets++
	c.stats.mu.Unlock()
}

// InvalidateAll drops every cached candle query. Called after any successful
// persist; coarse on purpose so eviction never has to reason about which
// parameter tuples a new bar affects.
func (c *RedisCandleCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	deleted := int64(0)
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan candle cache keys: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.redis.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete candle cache keys: %w", err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.stats.mu.Lock()
	c.stats.stats.Evictions += deleted
	c.stats.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the cache counters.
func (c *RedisCandleCache) Stats() CandleCacheStats {
	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()
	return c.stats.stats
}

func (c *RedisCandleCache) miss() {
	c.stats.mu.Lock()
	c.stats.stats.Misses++
	c.stats.mu.Unlock()
}
