package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/shelfline/marketsync/internal/models"
)

// SyncLogRepository handles the tenant-scoped audit trail and alerts.
// Both tables are append-only from the engine's point of view.
type SyncLogRepository struct {
	db *sqlx.DB
}

// NewSyncLogRepository creates a new SyncLogRepository.
func NewSyncLogRepository(db *sqlx.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// CreateLog appends one audit entry.
func (r *SyncLogRepository) CreateLog(e *models.SyncLog) error {
	const q = `
        INSERT INTO sync_logs (tenant_id, request_id, level, event, sku, detail)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return r.db.QueryRowx(q, e.TenantID, e.RequestID, e.Level, e.Event, e.SKU, e.Detail).
		Scan(&e.ID, &e.CreatedAt)
}

// CreateAlert appends one user-facing alert.
func (r *SyncLogRepository) CreateAlert(a *models.Alert) error {
	const q = `
        INSERT INTO alerts (tenant_id, kind, message, sku)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.db.QueryRowx(q, a.TenantID, a.Kind, a.Message, a.SKU).
		Scan(&a.ID, &a.CreatedAt)
}

// ListAlerts returns the newest alerts of a tenant.
func (r *SyncLogRepository) ListAlerts(tenantID int64, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT * FROM alerts WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`
	var alerts []models.Alert
	if err := r.db.Select(&alerts, q, tenantID, limit); err != nil {
		return nil, err
	}
	return alerts, nil
}
