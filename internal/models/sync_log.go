package models

import "time"

// SyncLog is a tenant-scoped append-only audit record of a sync decision or
// outbound call. The request id correlates all entries of one invocation.
type SyncLog struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  int64     `db:"tenant_id" json:"tenantId"`
	RequestID string    `db:"request_id" json:"requestId"`
	Level     string    `db:"level" json:"level"` // info | warn | error
	Event     string    `db:"event" json:"event"`
	SKU       *string   `db:"sku" json:"sku,omitempty"`
	Detail    string    `db:"detail" json:"detail"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AlertKind classifies user-facing alerts.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertInfo    AlertKind = "info"
	AlertError   AlertKind = "error"
)

// Alert is a user-facing notification surfaced in the seller console.
type Alert struct {
	ID        int64     `db:"id" json:"id"`
	TenantID  int64     `db:"tenant_id" json:"tenantId"`
	Kind      AlertKind `db:"kind" json:"kind"`
	Message   string    `db:"message" json:"message"`
	SKU       *string   `db:"sku" json:"sku,omitempty"`
	IsRead    bool      `db:"is_read" json:"isRead"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
