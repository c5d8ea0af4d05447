package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/middleware"
	"github.com/shelfline/marketsync/internal/repository"
	"github.com/shelfline/marketsync/internal/service"
	"github.com/shelfline/marketsync/internal/utils"
)

// SettingsHandler exposes the seller console's view of sync settings and
// alerts.
type SettingsHandler struct {
	tenants *repository.TenantRepository
	alerts  *service.AlertService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(tenants *repository.TenantRepository, alerts *service.AlertService) *SettingsHandler {
	return &SettingsHandler{tenants: tenants, alerts: alerts}
}

// GetSettings handles GET /v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	tenant, err := h.tenants.GetByID(tenantID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tenant")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load settings")
		return
	}
	tenant.APIKey = ""
	utils.Success(c, 200, "Settings", tenant)
}

type settingsRequest struct {
	DescriptionFooter   *string `json:"descriptionFooter"`
	FulfillmentPolicyID *string `json:"fulfillmentPolicyId"`
	PaymentPolicyID     *string `json:"paymentPolicyId"`
	ReturnPolicyID      *string `json:"returnPolicyId"`
	MerchantLocationKey *string `json:"merchantLocationKey"`
	LocationPostalCode  *string `json:"locationPostalCode"`
	LocationCountry     *string `json:"locationCountry"`
}

// UpdateSettings handles PUT /v1/settings. Only fields present in the body
// change.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid settings payload")
		return
	}

	tenant, err := h.tenants.GetByID(tenantID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tenant")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load settings")
		return
	}

	if req.DescriptionFooter != nil {
		tenant.DescriptionFooter = *req.DescriptionFooter
	}
	if req.FulfillmentPolicyID != nil {
		tenant.FulfillmentPolicyID = *req.FulfillmentPolicyID
	}
	if req.PaymentPolicyID != nil {
		tenant.PaymentPolicyID = *req.PaymentPolicyID
	}
	if req.ReturnPolicyID != nil {
		tenant.ReturnPolicyID = *req.ReturnPolicyID
	}
	if req.MerchantLocationKey != nil {
		tenant.MerchantLocationKey = *req.MerchantLocationKey
	}
	if req.LocationPostalCode != nil {
		tenant.LocationPostalCode = *req.LocationPostalCode
	}
	if req.LocationCountry != nil {
		tenant.LocationCountry = *req.LocationCountry
	}

	if err := h.tenants.UpdateSettings(tenant); err != nil {
		log.Error().Err(err).Msg("failed to save settings")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to save settings")
		return
	}
	tenant.APIKey = ""
	utils.Success(c, 200, "Settings saved", tenant)
}

// ListAlerts handles GET /v1/alerts
func (h *SettingsHandler) ListAlerts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, err := h.alerts.ListAlerts(tenantID, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list alerts")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list alerts")
		return
	}
	utils.Success(c, 200, "Alerts", list)
}
