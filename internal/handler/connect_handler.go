package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/cache"
	"github.com/shelfline/marketsync/internal/middleware"
	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// oauthStateTTL bounds how long a consent flow may stay open.
const oauthStateTTL = 10 * time.Minute

// ConnectHandler drives the marketplace OAuth consent flow from the seller
// console: consent URL issuance, the redirect callback, connection status,
// and disconnect.
type ConnectHandler struct {
	ebayClient *ebay.Client
	tokens     *service.TokenManager
	redis      *cache.RedisClient
}

// NewConnectHandler creates a new ConnectHandler.
func NewConnectHandler(ebayClient *ebay.Client, tokens *service.TokenManager, redis *cache.RedisClient) *ConnectHandler {
	return &ConnectHandler{ebayClient: ebayClient, tokens: tokens, redis: redis}
}

func stateKey(state string) string {
	return "oauth:state:" + state
}

// Connect handles GET /v1/marketplace/connect
func (h *ConnectHandler) Connect(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	state := uuid.New().String()
	if err := h.redis.Set(c.Request.Context(), stateKey(state), strconv.FormatInt(tenantID, 10), oauthStateTTL); err != nil {
		log.Error().Err(err).Msg("failed to store oauth state")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to start consent flow")
		return
	}
	utils.Success(c, 200, "Consent URL issued", gin.H{
		"url": h.ebayClient.AuthCodeURL(state),
	})
}

// Callback handles GET /v1/marketplace/callback. The marketplace redirects
// here after consent; the state parameter ties the code back to the tenant
// that started the flow.
func (h *ConnectHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		utils.Error(c, 400, "INVALID_REQUEST", "code and state are required")
		return
	}

	ctx := c.Request.Context()
	raw, err := h.redis.Get(ctx, stateKey(state))
	if err != nil {
		utils.Error(c, 400, "INVALID_STATE", "Unknown or expired consent flow")
		return
	}
	// One-shot: a replayed state must not work.
	if err := h.redis.Delete(ctx, stateKey(state)); err != nil {
		log.Warn().Err(err).Msg("failed to delete oauth state")
	}
	tenantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		utils.Error(c, 400, "INVALID_STATE", "Unknown or expired consent flow")
		return
	}

	tok, err := h.ebayClient.ExchangeCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", tenantID).Msg("authorization code exchange failed")
		utils.Error(c, 502, "EXCHANGE_FAILED", "Marketplace rejected the authorization code")
		return
	}
	if err := h.tokens.Connect(tenantID, tok); err != nil {
		log.Error().Err(err).Int64("tenant_id", tenantID).Msg("failed to store credential")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to store credential")
		return
	}

	log.Info().Int64("tenant_id", tenantID).Msg("marketplace account connected")
	utils.Success(c, 200, "Marketplace connected", nil)
}

// Status handles GET /v1/marketplace/status
func (h *ConnectHandler) Status(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	cred, err := h.tokens.Status(tenantID)
	if err != nil {
		if errors.Is(err, utils.ErrNotConnected) {
			utils.Success(c, 200, "Not connected", gin.H{"connected": false})
			return
		}
		log.Error().Err(err).Msg("failed to load credential status")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load status")
		return
	}
	utils.Success(c, 200, "Connected", gin.H{
		"connected":        true,
		"accessExpiresAt":  cred.AccessExpiresAt,
		"refreshExpiresAt": cred.RefreshExpiresAt,
		"connectedAt":      cred.CreatedAt,
	})
}

// Disconnect handles DELETE /v1/marketplace
func (h *ConnectHandler) Disconnect(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	if err := h.tokens.Disconnect(tenantID); err != nil {
		log.Error().Err(err).Msg("failed to delete credential")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to disconnect")
		return
	}
	utils.Success(c, 200, "Marketplace disconnected", nil)
}
