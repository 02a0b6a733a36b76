package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// InternalKeyMiddleware guards service-to-service routes with a pre-shared
// API key carried in the X-API-Key header.
type InternalKeyMiddleware struct {
	apiKey string
	log    *logrus.Logger
}

// NewInternalKeyMiddleware creates a new internal key middleware.
//
// Parameters:
//
//	apiKey: Pre-shared key expected in X-API-Key.
//	log: Logger for rejected requests.
//
// Returns:
//
//	*InternalKeyMiddleware: Initialized middleware.
func NewInternalKeyMiddleware(apiKey string, log *logrus.Logger) *InternalKeyMiddleware {
	return &InternalKeyMiddleware{apiKey: apiKey, log: log}
}

// RequireInternalKey rejects any request whose X-API-Key header does not
// exactly match the configured key.
//
// Returns:
//
//	gin.HandlerFunc: Gin handler.
func (im *InternalKeyMiddleware) RequireInternalKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if im.apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(im.apiKey)) != 1 {
			im.log.WithFields(logrus.Fields{
				"path":      c.Request.URL.Path,
				"remote_ip": c.ClientIP(),
			}).Warn("Internal API key rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
