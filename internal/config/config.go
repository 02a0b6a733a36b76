package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates all configuration settings for the application.
type Config struct {
	// Environment indicates the running environment (e.g., "development", "production").
	Environment string `mapstructure:"environment"`
	// LogLevel sets the global logging verbosity.
	LogLevel string `mapstructure:"log_level"`
	// Server holds configuration for the HTTP server.
	Server ServerConfig `mapstructure:"server"`
	// Database holds configuration for the PostgreSQL connection.
	Database DatabaseConfig `mapstructure:"database"`
	// Redis holds configuration for the Redis connection.
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka holds configuration for the fetch-request queue.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Auth holds configuration for token issuance and validation.
	Auth AuthConfig `mapstructure:"auth"`
	// Internal holds configuration for machine-to-machine routes.
	Internal InternalConfig `mapstructure:"internal"`
	// Exchange holds configuration for venue data providers.
	Exchange ExchangeConfig `mapstructure:"exchange"`
	// Scheduler holds configuration for the periodic download scheduler.
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	// Worker holds configuration for the ingestion worker pool.
	Worker WorkerConfig `mapstructure:"worker"`
	// Cache holds TTLs for the read caches.
	Cache CacheConfig `mapstructure:"cache"`
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	// Port is the TCP port the server listens on.
	Port int `mapstructure:"port"`
}

// DatabaseConfig defines the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig defines the queue transport settings.
type KafkaConfig struct {
	// Brokers is the bootstrap server list, comma separated.
	Brokers string `mapstructure:"brokers"`
	// PriceRequestTopic is the topic carrying FetchRequest messages.
	PriceRequestTopic string `mapstructure:"price_request_topic"`
	// GroupID is the consumer group for the ingestion workers.
	GroupID string `mapstructure:"group_id"`
	// Partitions is the partition count used when provisioning the topic.
	Partitions int `mapstructure:"partitions"`
	// RetentionHours is the topic retention used when provisioning.
	RetentionHours int `mapstructure:"retention_hours"`
}

// AuthConfig defines token issuance settings.
type AuthConfig struct {
	// JWTSecret is the symmetric signing key for access and refresh tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	// AccessTokenMinutes is the access token lifetime in minutes.
	AccessTokenMinutes int `mapstructure:"access_token_minutes"`
	// RefreshTokenDays is the refresh token lifetime in days.
	RefreshTokenDays int `mapstructure:"refresh_token_days"`
}

// InternalConfig defines the pre-shared key protecting internal routes.
type InternalConfig struct {
	// APIKey is compared by exact match against the X-API-Key header.
	APIKey string `mapstructure:"api_key"`
	// ConfigBaseURL is the base URL the scheduler config client calls.
	ConfigBaseURL string `mapstructure:"config_base_url"`
	// ConfigTTL is how long a fetched scheduler config snapshot stays fresh.
	ConfigTTL string `mapstructure:"config_ttl"`
	// ConfigTimeout is the HTTP timeout for the registry call (duration string).
	ConfigTimeout string `mapstructure:"config_timeout"`
}

// ExchangeConfig defines venue provider settings.
type ExchangeConfig struct {
	// DefaultExchange is the venue used when a request names none.
	DefaultExchange string `mapstructure:"default_exchange"`
	// TestingMode forces the deterministic synthetic provider for every venue.
	TestingMode bool `mapstructure:"testing_mode"`
	// MexcBaseURL is the MEXC REST endpoint.
	MexcBaseURL string `mapstructure:"mexc_base_url"`
	// Timeout is the venue request timeout (duration string).
	Timeout string `mapstructure:"timeout"`
}

// SchedulerConfig defines scheduler settings.
type SchedulerConfig struct {
	// Enabled controls whether the per-interval tickers run.
	Enabled bool `mapstructure:"enabled"`
}

// WorkerConfig defines ingestion worker pool settings.
type WorkerConfig struct {
	// Count is the number of consumer workers.
	Count int `mapstructure:"count"`
	// MaxRetries is the fetch-and-persist retry budget per message.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBackoff is the fixed pause between retries (duration string).
	RetryBackoff string `mapstructure:"retry_backoff"`
}

// CacheConfig defines read cache TTLs.
type CacheConfig struct {
	// CandleTTL is the candle query cache TTL (duration string).
	CandleTTL string `mapstructure:"candle_ttl"`
}

// Load reads the configuration from the config file and environment variables.
//
// Returns:
//
//	*Config: The loaded configuration structure.
//	error: An error if the configuration could not be parsed.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("internal.api_key", "INTERNAL_API_KEY")
	_ = viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = viper.BindEnv("database.password", "DATABASE_PASSWORD")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults initializes the default configuration values in Viper.
func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "change-me-in-production")
	viper.SetDefault("database.dbname", "candlefeed")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("kafka.brokers", "localhost:9092")
	viper.SetDefault("kafka.price_request_topic", "price-requests")
	viper.SetDefault("kafka.group_id", "candlefeed-workers")
	viper.SetDefault("kafka.partitions", 3)
	viper.SetDefault("kafka.retention_hours", 24)

	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.access_token_minutes", 15)
	viper.SetDefault("auth.refresh_token_days", 7)

	viper.SetDefault("internal.api_key", "")
	viper.SetDefault("internal.config_base_url", "http://localhost:8080")
	viper.SetDefault("internal.config_ttl", "30s")
	viper.SetDefault("internal.config_timeout", "2s")

	viper.SetDefault("exchange.default_exchange", "binance")
	viper.SetDefault("exchange.testing_mode", false)
	viper.SetDefault("exchange.mexc_base_url", "https://api.mexc.com")
	viper.SetDefault("exchange.timeout", "10s")

	viper.SetDefault("scheduler.enabled", true)

	viper.SetDefault("worker.count", 4)
	viper.SetDefault("worker.max_retries", 3)
	viper.SetDefault("worker.retry_backoff", "2s")

	viper.SetDefault("cache.candle_ttl", "60s")
}

// validateConfig validates critical security and operational settings.
func validateConfig(config *Config) error {
	if config.Environment == "production" || config.Environment == "staging" {
		if config.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET cannot be empty in %s environment", config.Environment)
		}
		if len(config.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long in %s environment", config.Environment)
		}
		if config.Internal.APIKey == "" {
			return fmt.Errorf("INTERNAL_API_KEY cannot be empty in %s environment", config.Environment)
		}
	}

	if config.Worker.Count < 1 {
		return fmt.Errorf("worker.count must be at least 1, got %d", config.Worker.Count)
	}
	if config.Kafka.Partitions < 1 {
		return fmt.Errorf("kafka.partitions must be at least 1, got %d", config.Kafka.Partitions)
	}

	return nil
}

// parseDuration returns the parsed duration string, or fallback when the
// value is empty or malformed.
func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// ConfigTTLDuration returns the scheduler config snapshot lifetime.
func (c InternalConfig) ConfigTTLDuration() time.Duration {
	return parseDuration(c.ConfigTTL, 30*time.Second)
}

// ConfigTimeoutDuration returns the registry call timeout.
func (c InternalConfig) ConfigTimeoutDuration() time.Duration {
	return parseDuration(c.ConfigTimeout, 2*time.Second)
}

// TimeoutDuration returns the venue request timeout.
func (c ExchangeConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// RetryBackoffDuration returns the pause between fetch retries.
func (c WorkerConfig) RetryBackoffDuration() time.Duration {
	return parseDuration(c.RetryBackoff, 2*time.Second)
}

// CandleTTLDuration returns the candle query cache TTL.
func (c CacheConfig) CandleTTLDuration() time.Duration {
	return parseDuration(c.CandleTTL, time.Minute)
}

// AccessTokenTTL returns the access token lifetime.
func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenDays) * 24 * time.Hour
}
