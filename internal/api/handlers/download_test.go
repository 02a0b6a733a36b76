package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohlcx/candlefeed/internal/models"
)

type fakePublisher struct {
	requests []*models.FetchRequest
	err      error
}

func (f *fakePublisher) PublishFetchRequest(req *models.FetchRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

func newDownloadRouter(publisher *fakePublisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDownloadHandler(publisher, "binance")

	router := gin.New()
	router.POST("/download", h.Download)
	router.POST("/download/backfill", h.Backfill)
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDownloadHandler_AcceptsAndEnqueues(t *testing.T) {
	publisher := &fakePublisher{}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download", DownloadRequest{Pair: "BTCUSDT", Interval: "1m"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, publisher.requests, 1)

	req := publisher.requests[0]
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, "BTCUSDT", req.PriceObject.Pair)
	assert.Equal(t, "1m", req.PriceObject.Interval)
	assert.Equal(t, 100, req.PriceObject.Limit)
	assert.Equal(t, "binance", req.PriceObject.Exchange)
	assert.Contains(t, w.Body.String(), req.RequestID)
}

func TestDownloadHandler_BackfillUsesWiderWindow(t *testing.T) {
	publisher := &fakePublisher{}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download/backfill", DownloadRequest{Pair: "ETHUSDT", Interval: "1h"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, publisher.requests, 1)
	assert.Equal(t, 500, publisher.requests[0].PriceObject.Limit)
}

func TestDownloadHandler_ExplicitValuesWin(t *testing.T) {
	publisher := &fakePublisher{}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download", DownloadRequest{Pair: "BTCUSDT", Interval: "5m", Limit: 7, Exchange: "mexc"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, publisher.requests, 1)
	assert.Equal(t, 7, publisher.requests[0].PriceObject.Limit)
	assert.Equal(t, "mexc", publisher.requests[0].PriceObject.Exchange)
}

func TestDownloadHandler_RejectsBadInterval(t *testing.T) {
	publisher := &fakePublisher{}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download", DownloadRequest{Pair: "BTCUSDT", Interval: "2w"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, publisher.requests)
}

func TestDownloadHandler_RejectsMissingFields(t *testing.T) {
	publisher := &fakePublisher{}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download", map[string]string{"pair": "BTCUSDT"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, publisher.requests)
}

func TestDownloadHandler_PublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: assert.AnError}
	router := newDownloadRouter(publisher)

	w := postJSON(router, "/download", DownloadRequest{Pair: "BTCUSDT", Interval: "1m"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
