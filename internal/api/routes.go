package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ohlcx/candlefeed/internal/api/handlers"
	"github.com/ohlcx/candlefeed/internal/cache"
	"github.com/ohlcx/candlefeed/internal/database"
	"github.com/ohlcx/candlefeed/internal/middleware"
	"github.com/ohlcx/candlefeed/internal/models"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// Handlers bundles the route handlers and middleware for SetupRoutes.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Candle   *handlers.CandleHandler
	Download *handlers.DownloadHandler
	Config   *handlers.ConfigHandler
	RPC      *handlers.RPCHandler
	Cache    *cache.RedisCandleCache

	AuthMW     *middleware.AuthMiddleware
	InternalMW *middleware.InternalKeyMiddleware
}

// SetupRoutes registers all HTTP routes.
func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, h Handlers) {
	// Health check endpoint
	router.GET("/health", healthCheck(db, redis))

	v1 := router.Group("/api/v1")
	{
		// Credential authority
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Candle reads, any authenticated user
		candles := v1.Group("/candles", h.AuthMW.RequireAuth())
		{
			candles.GET("/:symbol", h.Candle.GetAvailableIntervals)
			candles.GET("/:symbol/:interval", h.Candle.GetCandles)
		}

		// Manual download triggers, admin only
		download := v1.Group("/download", h.AuthMW.RequireRole(models.RoleAdmin))
		{
			download.POST("", h.Download.Download)
			download.POST("/backfill", h.Download.Backfill)
		}

		// Config registry administration, admin only
		config := v1.Group("/config", h.AuthMW.RequireRole(models.RoleAdmin))
		{
			config.GET("/pairs", h.Config.ListPairs)
			config.POST("/pairs", h.Config.AddPair)
			config.PUT("/pairs/:id", h.Config.SetPairEnabled)
			config.DELETE("/pairs/:id", h.Config.DeletePair)
			config.GET("/intervals", h.Config.ListIntervals)
			config.PUT("/intervals/:id", h.Config.SetIntervalEnabled)
		}

		// Service-to-service surfaces, pre-shared key only
		internal := v1.Group("/internal", h.InternalMW.RequireInternalKey())
		{
			internal.GET("/scheduler-config", h.Config.SchedulerConfig)
			internal.GET("/cache-stats", func(c *gin.Context) {
				c.JSON(http.StatusOK, h.Cache.Stats())
			})
		}

		rpc := v1.Group("/rpc", h.InternalMW.RequireInternalKey())
		{
			rpc.POST("/auth/validate-token", h.RPC.ValidateToken)
			rpc.GET("/auth/users/:username", h.RPC.GetUser)
			rpc.POST("/market/candles", h.RPC.GetCandles)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		if err := db.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}

		if err := redis.HealthCheck(c.Request.Context()); err != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
