package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
)

// WebhookHandler handles the marketplace notification endpoint: the GET
// challenge handshake and POST deliveries.
type WebhookHandler struct {
	webhooks          *service.WebhookService
	verificationToken string
	endpoint          string
}

// NewWebhookHandler constructs a WebhookHandler. endpoint must be the exact
// URL registered with the marketplace; it is part of the challenge digest.
func NewWebhookHandler(webhooks *service.WebhookService, verificationToken, endpoint string) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, verificationToken: verificationToken, endpoint: endpoint}
}

// HandleChallenge handles GET /webhook/ebay
func (h *WebhookHandler) HandleChallenge(c *gin.Context) {
	code := c.Query("challenge_code")
	if code == "" {
		c.JSON(400, gin.H{"error": "challenge_code is required"})
		return
	}
	c.JSON(200, gin.H{
		"challengeResponse": service.ChallengeResponse(code, h.verificationToken, h.endpoint),
	})
}

// HandleNotification handles POST /webhook/ebay. Unknown topics and bodies
// the parser cannot read are acknowledged anyway; redelivering them would
// never succeed either.
func (h *WebhookHandler) HandleNotification(c *gin.Context) {
	requestID := utils.GetRequestID(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid body"})
		return
	}

	n, err := service.ParseNotification(c.ContentType(), body)
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("undecodable webhook body, acknowledging")
		c.JSON(200, gin.H{"received": true})
		return
	}

	if err := h.webhooks.HandleNotification(c.Request.Context(), requestID, n); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to process notification")
		c.JSON(500, gin.H{"error": "Processing failed"})
		return
	}
	c.JSON(200, gin.H{"received": true})
}
