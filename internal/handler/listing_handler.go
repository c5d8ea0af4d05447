package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/middleware"
	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
)

// ListingHandler exposes the sync operations of the integration surface:
// batch publish/update/end, the outbound reconcile sweep, and an on-demand
// order sync pass.
type ListingHandler struct {
	publish   *service.PublishService
	reconcile *service.ReconcileService
	orders    *service.OrderSyncService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(publish *service.PublishService, reconcile *service.ReconcileService, orders *service.OrderSyncService) *ListingHandler {
	return &ListingHandler{publish: publish, reconcile: reconcile, orders: orders}
}

type batchRequest struct {
	Action     string  `json:"action" binding:"required"`
	ProductIDs []int64 `json:"productIds" binding:"required,min=1"`
}

// BatchAction handles POST /v1/listings/batch
func (h *ListingHandler) BatchAction(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	requestID := utils.GetRequestID(c)

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "action and productIds are required")
		return
	}
	switch req.Action {
	case service.ActionPublish, service.ActionUpdate, service.ActionEnd:
	default:
		utils.Error(c, 400, "INVALID_REQUEST", "action must be publish, update, or end")
		return
	}

	result, err := h.publish.RunBatch(c.Request.Context(), requestID, tenantID, req.ProductIDs, req.Action)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	utils.Success(c, 200, "Batch complete", result)
}

// Reconcile handles POST /v1/listings/reconcile
func (h *ListingHandler) Reconcile(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	requestID := utils.GetRequestID(c)

	result, err := h.reconcile.Reconcile(c.Request.Context(), requestID, tenantID)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	utils.Success(c, 200, "Reconcile complete", result)
}

// SyncOrders handles POST /v1/orders/sync
func (h *ListingHandler) SyncOrders(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	requestID := utils.GetRequestID(c)

	stats, err := h.orders.SyncTenant(c.Request.Context(), requestID, tenantID)
	if err != nil {
		writeSyncError(c, err)
		return
	}
	utils.Success(c, 200, "Order sync complete", stats)
}

// writeSyncError maps service errors to the response envelope.
func writeSyncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrNotConnected):
		utils.Error(c, 409, "MARKETPLACE_NOT_CONNECTED", "Connect your marketplace account first")
	case errors.Is(err, utils.ErrReconnectRequired):
		utils.Error(c, 409, "MARKETPLACE_RECONNECT_REQUIRED", "Marketplace authorization expired, please reconnect")
	case utils.IsConfigurationError(err):
		utils.Error(c, 422, "CONFIGURATION_INCOMPLETE", err.Error())
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("sync operation failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Operation failed")
	}
}
