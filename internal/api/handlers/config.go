package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ohlcx/candlefeed/internal/database"
	"github.com/ohlcx/candlefeed/internal/models"
)

// ConfigHandler serves the config registry: pair and interval administration
// plus the internal scheduler-config read used by the scheduler and query
// validation.
type ConfigHandler struct {
	repo *database.ConfigRepository
}

type AddPairRequest struct {
	Symbol     string `json:"symbol" binding:"required"`
	BaseAsset  string `json:"baseAsset" binding:"required"`
	QuoteAsset string `json:"quoteAsset" binding:"required"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// NewConfigHandler creates a config registry handler.
//
// Parameters:
//
//	repo: Config registry repository.
//
// Returns:
//
//	*ConfigHandler: Initialized handler.
func NewConfigHandler(repo *database.ConfigRepository) *ConfigHandler {
	return &ConfigHandler{repo: repo}
}

// ListPairs handles GET /config/pairs.
func (h *ConfigHandler) ListPairs(c *gin.Context) {
	pairs, err := h.repo.ListPairs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pairs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

// AddPair handles POST /config/pairs.
func (h *ConfigHandler) AddPair(c *gin.Context) {
	var req AddPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	pair, err := h.repo.AddPair(c.Request.Context(), req.Symbol, req.BaseAsset, req.QuoteAsset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add pair"})
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// SetPairEnabled handles PUT /config/pairs/:id.
func (h *ConfigHandler) SetPairEnabled(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.repo.SetPairEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		respondRepoError(c, err, "Failed to update pair")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

// DeletePair handles DELETE /config/pairs/:id.
func (h *ConfigHandler) DeletePair(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.repo.DeletePair(c.Request.Context(), id); err != nil {
		respondRepoError(c, err, "Failed to delete pair")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIntervals handles GET /config/intervals.
func (h *ConfigHandler) ListIntervals(c *gin.Context) {
	intervals, err := h.repo.ListIntervals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list intervals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"intervals": intervals})
}

// SetIntervalEnabled handles PUT /config/intervals/:id.
func (h *ConfigHandler) SetIntervalEnabled(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.repo.SetIntervalEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		respondRepoError(c, err, "Failed to update interval")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": *req.Enabled})
}

// SchedulerConfig handles GET /internal/scheduler-config. It returns only
// the enabled pair and interval sets.
func (h *ConfigHandler) SchedulerConfig(c *gin.Context) {
	cfg, err := h.repo.SchedulerConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scheduler config"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return 0, false
	}
	return id, true
}

func respondRepoError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
