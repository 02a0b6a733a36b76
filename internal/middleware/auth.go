package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ohlcx/candlefeed/internal/auth"
)

// AuthMiddleware provides JWT authentication middleware.
type AuthMiddleware struct {
	tokens *auth.TokenProvider
}

// NewAuthMiddleware creates a new authentication middleware.
//
// Parameters:
//
//	tokens: Token provider used for validation.
//
// Returns:
//
//	*AuthMiddleware: Initialized middleware.
func NewAuthMiddleware(tokens *auth.TokenProvider) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth middleware validates JWT access tokens.
// It requires a valid Bearer token in the Authorization header.
//
// Returns:
//
//	gin.HandlerFunc: Gin handler.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := am.extractClaims(c)
		if !ok {
			return
		}

		c.Set("username", claims.Subject)
		c.Set("roles", claims.Roles)
		c.Next()
	}
}

// RequireRole validates the token and additionally requires one of the given
// roles. A valid token without the role is 403, not 401.
//
// Returns:
//
//	gin.HandlerFunc: Gin handler.
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := am.extractClaims(c)
		if !ok {
			return
		}

		for _, want := range roles {
			for _, have := range claims.Roles {
				if have == want {
					c.Set("username", claims.Subject)
					c.Set("roles", claims.Roles)
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
		c.Abort()
	}
}

func (am *AuthMiddleware) extractClaims(c *gin.Context) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
		c.Abort()
		return nil, false
	}

	// Check Bearer prefix (case-insensitive as per RFC 6750)
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := am.tokens.ValidateToken(tokenParts[1])
	if err != nil {
		if auth.IsExpired(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
		} else {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		}
		c.Abort()
		return nil, false
	}

	// Refresh tokens authenticate the refresh endpoint only, never a request.
	if auth.IsRefreshToken(claims) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		c.Abort()
		return nil, false
	}

	return claims, true
}
