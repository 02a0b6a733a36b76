package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshTokenType is the claim marker distinguishing refresh tokens from
// access tokens signed with the same key.
const refreshTokenType = "refresh"

// Claims represents the JWT token claims.
type Claims struct {
	// Roles are the subject's roles at issuance time.
	Roles []string `json:"roles,omitempty"`
	// TokenType is "refresh" on refresh tokens and absent on access tokens.
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider issues and validates signed, time-bound tokens. Validity is
// stateless: a token is valid while its signature verifies and it has not
// expired. There is no revocation list and expiry is only ever detected
// lazily at validation time.
type TokenProvider struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider creates a new token provider.
//
// Parameters:
//
//	secretKey: Symmetric key for signing tokens.
//	accessTTL: Access token lifetime (minutes scale).
//	refreshTTL: Refresh token lifetime (days scale).
//
// Returns:
//
//	*TokenProvider: Initialized provider.
func NewTokenProvider(secretKey string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// GenerateAccessToken creates a short-lived access token carrying the
// subject's roles.
func (tp *TokenProvider) GenerateAccessToken(username string, roles []string) (string, error) {
	return tp.sign(&Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tp.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateRefreshToken creates a long-lived token carrying the refresh
// marker claim. Refresh tokens carry no roles; roles are re-read at refresh
// time so a role change takes effect on the next access token.
func (tp *TokenProvider) GenerateRefreshToken(username string) (string, error) {
	return tp.sign(&Claims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tp.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (tp *TokenProvider) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tp.secretKey)
}

// ValidateToken parses a token and checks signature and expiry. A malformed
// token is an error, never a panic.
//
// Parameters:
//
//	tokenString: Token string to validate.
//
// Returns:
//
//	*Claims: Token claims.
//	error: Error if validation fails.
func (tp *TokenProvider) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tp.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// IsRefreshToken reports whether the claims carry the refresh marker.
func IsRefreshToken(claims *Claims) bool {
	return claims != nil && claims.TokenType == refreshTokenType
}

// IsExpired reports whether err is the jwt expiry sentinel.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

// ValidationResult is the stateless answer to "is this token good".
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	Username     string   `json:"username,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// Validate answers a validation request without surfacing an error: invalid
// and expired tokens yield Valid=false with a reason, mirroring the RPC
// response shape.
func (tp *TokenProvider) Validate(tokenString string) ValidationResult {
	if tokenString == "" {
		return ValidationResult{Valid: false, ErrorMessage: "Token is empty"}
	}
	claims, err := tp.ValidateToken(tokenString)
	if err != nil {
		return ValidationResult{Valid: false, ErrorMessage: "Invalid or expired token"}
	}
	return ValidationResult{
		Valid:    true,
		Username: claims.Subject,
		Roles:    claims.Roles,
	}
}
