package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newInternalTestRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	mw := NewInternalKeyMiddleware(apiKey, logger)
	router := gin.New()
	router.GET("/internal/thing", mw.RequireInternalKey(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doInternalRequest(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/internal/thing", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireInternalKey(t *testing.T) {
	router := newInternalTestRouter("super-secret-key")

	t.Run("matching key", func(t *testing.T) {
		w := doInternalRequest(router, "super-secret-key")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		w := doInternalRequest(router, "wrong-key")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid API key")
	})

	t.Run("missing key", func(t *testing.T) {
		w := doInternalRequest(router, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("prefix is not a match", func(t *testing.T) {
		w := doInternalRequest(router, "super-secret-key-plus")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireInternalKey_EmptyConfiguredKeyRejectsAll(t *testing.T) {
	router := newInternalTestRouter("")

	w := doInternalRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
