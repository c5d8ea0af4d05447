package models

import "time"

// Credential holds a tenant's marketplace OAuth tokens. Token values are
// encrypted at rest; repositories hand them out decrypted. Owned exclusively
// by the token manager and mutated only through refresh operations.
type Credential struct {
	TenantID         int64     `db:"tenant_id" json:"tenantId"`
	AccessToken      string    `db:"access_token" json:"-"`
	RefreshToken     string    `db:"refresh_token" json:"-"`
	AccessExpiresAt  time.Time `db:"access_expires_at" json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `db:"refresh_expires_at" json:"refreshExpiresAt"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
