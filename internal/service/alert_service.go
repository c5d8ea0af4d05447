package service

import (
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
)

type auditStore interface {
	CreateLog(e *models.SyncLog) error
	CreateAlert(a *models.Alert) error
	ListAlerts(tenantID int64, limit int) ([]models.Alert, error)
}

// AlertService is the shared sink for the tenant-scoped audit trail and
// user-facing alerts. Writes are best-effort: a failing audit insert is
// logged and never fails the sync operation that produced it.
type AlertService struct {
	store auditStore
}

// NewAlertService creates a new AlertService.
func NewAlertService(store auditStore) *AlertService {
	return &AlertService{store: store}
}

// Log appends one audit entry and mirrors it to the process log under the
// same request id.
func (s *AlertService) Log(tenantID int64, requestID, level, event string, sku *string, detail string) {
	evt := log.Info()
	switch level {
	case "warn":
		evt = log.Warn()
	case "error":
		evt = log.Error()
	}
	evt = evt.Int64("tenant_id", tenantID).Str("request_id", requestID).Str("event", event)
	if sku != nil {
		evt = evt.Str("sku", *sku)
	}
	evt.Msg(detail)

	entry := &models.SyncLog{
		TenantID:  tenantID,
		RequestID: requestID,
		Level:     level,
		Event:     event,
		SKU:       sku,
		Detail:    detail,
	}
	if err := s.store.CreateLog(entry); err != nil {
		log.Error().Err(err).Str("event", event).Msg("failed to persist audit entry")
	}
}

// Alert records a user-facing alert for the seller console.
func (s *AlertService) Alert(tenantID int64, kind models.AlertKind, message string, sku *string) {
	a := &models.Alert{
		TenantID: tenantID,
		Kind:     kind,
		Message:  message,
		SKU:      sku,
	}
	if err := s.store.CreateAlert(a); err != nil {
		log.Error().Err(err).Str("message", message).Msg("failed to persist alert")
	}
}

// ListAlerts returns the newest alerts of a tenant.
func (s *AlertService) ListAlerts(tenantID int64, limit int) ([]models.Alert, error) {
	return s.store.ListAlerts(tenantID, limit)
}
