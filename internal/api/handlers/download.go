package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ohlcx/candlefeed/internal/models"
	"github.com/ohlcx/candlefeed/internal/services"
)

// DownloadHandler accepts manual download and backfill triggers. Both enqueue
// fetch requests and return 202: the actual work happens in the ingestion
// workers.
type DownloadHandler struct {
	publisher       services.FetchRequestPublisher
	defaultExchange string
}

type DownloadRequest struct {
	Pair     string `json:"pair" binding:"required"`
	Interval string `json:"interval" binding:"required"`
	Limit    int    `json:"limit"`
	Exchange string `json:"exchange"`
}

// NewDownloadHandler creates a download trigger handler.
//
// Parameters:
//
//	publisher: Queue publisher for fetch requests.
//	defaultExchange: Venue used when the request names none.
//
// Returns:
//
//	*DownloadHandler: Initialized handler.
func NewDownloadHandler(publisher services.FetchRequestPublisher, defaultExchange string) *DownloadHandler {
	return &DownloadHandler{publisher: publisher, defaultExchange: defaultExchange}
}

// Download handles POST /download.
func (h *DownloadHandler) Download(c *gin.Context) {
	h.enqueue(c, services.DefaultDownloadLimit)
}

// Backfill handles POST /download/backfill with a wider default window.
func (h *DownloadHandler) Backfill(c *gin.Context) {
	h.enqueue(c, services.DefaultBackfillLimit)
}

func (h *DownloadHandler) enqueue(c *gin.Context, defaultLimit int) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if _, err := models.ParseInterval(req.Interval); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	exchange := req.Exchange
	if exchange == "" {
		exchange = h.defaultExchange
	}

	fetchReq := &models.FetchRequest{
		RequestID: uuid.New().String(),
		PriceObject: models.PriceObject{
			Pair:     req.Pair,
			Interval: req.Interval,
			Limit:    limit,
			Exchange: exchange,
		},
		Timestamp: time.Now().UTC(),
	}

	if err := h.publisher.PublishFetchRequest(fetchReq); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue download"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"requestId": fetchReq.RequestID,
		"pair":      fetchReq.PriceObject.Pair,
		"interval":  fetchReq.PriceObject.Interval,
		"limit":     fetchReq.PriceObject.Limit,
		"exchange":  fetchReq.PriceObject.Exchange,
	})
}
