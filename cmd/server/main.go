package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ohlcx/candlefeed/internal/api"
	"github.com/ohlcx/candlefeed/internal/api/handlers"
	"github.com/ohlcx/candlefeed/internal/auth"
	"github.com/ohlcx/candlefeed/internal/cache"
	"github.com/ohlcx/candlefeed/internal/config"
	"github.com/ohlcx/candlefeed/internal/database"
	"github.com/ohlcx/candlefeed/internal/market"
	"github.com/ohlcx/candlefeed/internal/middleware"
	"github.com/ohlcx/candlefeed/internal/queue"
	"github.com/ohlcx/candlefeed/internal/services"
)

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := queue.EnsureTopic(ctx, &cfg.Kafka, logger); err != nil {
		logger.Fatalf("Failed to provision Kafka topic: %v", err)
	}

	producer, err := queue.NewProducer(&cfg.Kafka, logger)
	if err != nil {
		logger.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer producer.Close()

	// Venue providers
	selector := market.NewSelector(cfg.Exchange.TestingMode, logger)
	selector.Register(market.NewBinanceProvider(cfg.Exchange.TimeoutDuration(), logger))
	selector.Register(market.NewMexcProvider(cfg.Exchange.MexcBaseURL, cfg.Exchange.TimeoutDuration(), logger))
	selector.Register(market.NewTestProvider())

	// Storage and cache
	candleRepo := database.NewCandleRepository(db.Pool)
	configRepo := database.NewConfigRepository(db.Pool)
	userRepo := database.NewUserRepository(db.Pool)
	candleCache := cache.NewRedisCandleCache(redis.Client, cfg.Cache.CandleTTLDuration())

	// Credential authority
	tokens := auth.NewTokenProvider(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	authService := auth.NewService(userRepo, tokens, int64(cfg.Auth.AccessTokenTTL().Seconds()))

	// Pipeline services
	configClient := services.NewConfigClient(cfg.Internal.ConfigBaseURL, cfg.Internal.APIKey, cfg.Internal.ConfigTTLDuration(), cfg.Internal.ConfigTimeoutDuration(), logger)
	downloader := services.NewDownloadService(selector, candleRepo, candleCache, cfg.Worker.MaxRetries, cfg.Worker.RetryBackoffDuration(), logger)
	queryService := services.NewQueryService(candleRepo, candleCache, configClient, logger)
	scheduler := services.NewScheduler(configClient, producer, cfg.Exchange.DefaultExchange, logger)

	consumer, err := queue.NewConsumer(&cfg.Kafka, cfg.Worker.Count, downloader.HandleFetchRequest, logger)
	if err != nil {
		logger.Fatalf("Failed to create Kafka consumer: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	api.SetupRoutes(router, db, redis, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		Candle:     handlers.NewCandleHandler(queryService),
		Download:   handlers.NewDownloadHandler(producer, cfg.Exchange.DefaultExchange),
		Config:     handlers.NewConfigHandler(configRepo),
		RPC:        handlers.NewRPCHandler(authService, queryService),
		Cache:      candleCache,
		AuthMW:     middleware.NewAuthMiddleware(tokens),
		InternalMW: middleware.NewInternalKeyMiddleware(cfg.Internal.APIKey, logger),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return consumer.Run(groupCtx)
	})

	if cfg.Scheduler.Enabled {
		group.Go(func() error {
			return scheduler.Run(groupCtx)
		})
	} else {
		logger.Info("Scheduler disabled")
	}

	group.Go(func() error {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("Server exited with error: %v", err)
		os.Exit(1)
	}
	logger.Info("Server exited")
}
