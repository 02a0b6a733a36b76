package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohlcx/candlefeed/internal/auth"
	"github.com/ohlcx/candlefeed/internal/models"
)

func generateTestSecret(t *testing.T) string {
	t.Helper()
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	require.NoError(t, err)
	return hex.EncodeToString(bytes)
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, *auth.TokenProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenProvider(generateTestSecret(t), 15*time.Minute, 24*time.Hour)
	mw := NewAuthMiddleware(tokens)

	router := gin.New()
	router.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})
	router.GET("/admin", mw.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})
	return router, tokens
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	router, tokens := newAuthTestRouter(t)

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("alice", []string{models.RoleUser})
		require.NoError(t, err)

		w := doRequest(router, "/protected", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice")
	})

	t.Run("missing header", func(t *testing.T) {
		w := doRequest(router, "/protected", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authorization header required")
	})

	t.Run("malformed header", func(t *testing.T) {
		w := doRequest(router, "/protected", "Token abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization header format")
	})

	t.Run("tampered token", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("alice", nil)
		require.NoError(t, err)

		w := doRequest(router, "/protected", "Bearer "+token+"x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid token")
	})

	t.Run("expired token", func(t *testing.T) {
		secret := generateTestSecret(t)
		issuer := auth.NewTokenProvider(secret, -time.Minute, -time.Minute)
		mw := NewAuthMiddleware(auth.NewTokenProvider(secret, 15*time.Minute, 24*time.Hour))

		expiredRouter := gin.New()
		expiredRouter.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		token, err := issuer.GenerateAccessToken("alice", nil)
		require.NoError(t, err)

		w := doRequest(expiredRouter, "/protected", "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token expired")
	})

	t.Run("refresh token rejected on request path", func(t *testing.T) {
		refresh, err := tokens.GenerateRefreshToken("alice")
		require.NoError(t, err)

		w := doRequest(router, "/protected", "Bearer "+refresh)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	router, tokens := newAuthTestRouter(t)

	t.Run("admin allowed", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("root", []string{models.RoleAdmin})
		require.NoError(t, err)

		w := doRequest(router, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("plain user forbidden", func(t *testing.T) {
		token, err := tokens.GenerateAccessToken("alice", []string{models.RoleUser})
		require.NoError(t, err)

		w := doRequest(router, "/admin", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Insufficient role")
	})

	t.Run("no token unauthorized", func(t *testing.T) {
		w := doRequest(router, "/admin", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
