package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ohlcx/candlefeed/internal/auth"
	"github.com/ohlcx/candlefeed/internal/services"
)

// RPCHandler serves the service-to-service endpoints consumed by the rpc
// client package in sibling services.
type RPCHandler struct {
	auth  *auth.Service
	query *services.QueryService
}

type ValidateTokenRequest struct {
	Token string `json:"token"`
}

type UserLookupResponse struct {
	Found    bool     `json:"found"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type RPCCandleRequest struct {
	Symbol       string `json:"symbol" binding:"required"`
	IntervalCode string `json:"interval" binding:"required"`
	Limit        int    `json:"limit"`
	StartTime    *int64 `json:"startTime"`
	EndTime      *int64 `json:"endTime"`
	Exchange     string `json:"exchange"`
}

// NewRPCHandler creates the RPC surface handler.
//
// Parameters:
//
//	authService: Credential authority service.
//	query: Candle query service.
//
// Returns:
//
//	*RPCHandler: Initialized handler.
func NewRPCHandler(authService *auth.Service, query *services.QueryService) *RPCHandler {
	return &RPCHandler{auth: authService, query: query}
}

// ValidateToken handles POST /rpc/auth/validate-token. Invalid tokens are a
// 200 with valid=false, never an error status.
func (h *RPCHandler) ValidateToken(c *gin.Context) {
	var req ValidateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.auth.Tokens().Validate(req.Token))
}

// GetUser handles GET /rpc/auth/users/:username.
func (h *RPCHandler) GetUser(c *gin.Context) {
	username := c.Param("username")
	found, roles := h.auth.LookupUser(c.Request.Context(), username)

	resp := UserLookupResponse{Found: found}
	if found {
		resp.Username = username
		resp.Roles = roles
	}
	c.JSON(http.StatusOK, resp)
}

// GetCandles handles POST /rpc/market/candles.
func (h *RPCHandler) GetCandles(c *gin.Context) {
	var req RPCCandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultQueryLimit
	}

	candles, err := h.query.GetCandles(c.Request.Context(), services.CandleQueryRequest{
		Symbol:       req.Symbol,
		IntervalCode: req.IntervalCode,
		Limit:        req.Limit,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Exchange:     req.Exchange,
	})
	if err != nil {
		status, message := queryErrorStatus(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"candles": candles})
}
