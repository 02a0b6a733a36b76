package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ohlcx/candlefeed/internal/models"
	"github.com/ohlcx/candlefeed/internal/services"
)

const defaultQueryLimit = 100

// CandleHandler serves candle reads.
type CandleHandler struct {
	query *services.QueryService
}

// NewCandleHandler creates a candle read handler.
//
// Parameters:
//
//	query: Candle query service.
//
// Returns:
//
//	*CandleHandler: Initialized handler.
func NewCandleHandler(query *services.QueryService) *CandleHandler {
	return &CandleHandler{query: query}
}

// GetCandles handles GET /candles/:symbol/:interval.
func (h *CandleHandler) GetCandles(c *gin.Context) {
	req := services.CandleQueryRequest{
		Symbol:       c.Param("symbol"),
		IntervalCode: c.Param("interval"),
		Limit:        defaultQueryLimit,
		Exchange:     c.Query("exchange"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		req.Limit = limit
	}

	var parseErr error
	if req.StartTime, parseErr = optionalMillis(c, "startTime"); parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
		return
	}
	if req.EndTime, parseErr = optionalMillis(c, "endTime"); parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": parseErr.Error()})
		return
	}

	candles, err := h.query.GetCandles(c.Request.Context(), req)
	if err != nil {
		status, message := queryErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"candles": candles, "count": len(candles)})
}

// GetAvailableIntervals handles GET /candles/:symbol.
func (h *CandleHandler) GetAvailableIntervals(c *gin.Context) {
	intervals, err := h.query.GetAvailableIntervals(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		status, message := queryErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"intervals": intervals})
}

func optionalMillis(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New(name + " must be epoch milliseconds")
	}
	return &value, nil
}

func queryErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to query candles"
	}
}
