package rpc

import (
	"context"
	"net/url"
	"time"
)

// TokenValidationResponse is the result of a remote token check. Invalid
// tokens are a negative result, not a transport error.
type TokenValidationResponse struct {
	Valid        bool     `json:"valid"`
	Username     string   `json:"username,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// UserLookupResponse is the result of a remote user lookup.
type UserLookupResponse struct {
	Found    bool     `json:"found"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// AuthClient calls the credential authority endpoints.
type AuthClient struct {
	client *Client
}

// NewAuthClient creates a credential authority RPC client.
//
// Parameters:
//
//	baseURL: Base URL of the authority service.
//	apiKey: Pre-shared key sent in X-API-Key.
//	timeout: HTTP timeout, zero for the default.
//
// Returns:
//
//	*AuthClient: Initialized client.
func NewAuthClient(baseURL, apiKey string, timeout time.Duration) *AuthClient {
	return &AuthClient{client: NewClient(baseURL, apiKey, timeout)}
}

// ValidateToken checks a JWT against the authority.
func (c *AuthClient) ValidateToken(ctx context.Context, token string) (*TokenValidationResponse, error) {
	body := map[string]string{"token": token}
	var resp TokenValidationResponse
	if err := c.client.makeRequest(ctx, "POST", "/api/v1/rpc/auth/validate-token", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUserByUsername looks up a user by username. A missing user is reported
// through Found, not an error.
func (c *AuthClient) GetUserByUsername(ctx context.Context, username string) (*UserLookupResponse, error) {
	var resp UserLookupResponse
	path := "/api/v1/rpc/auth/users/" + url.PathEscape(username)
	if err := c.client.makeRequest(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
