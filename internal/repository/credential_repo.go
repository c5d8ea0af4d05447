package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
)

// CredentialRepository handles data access for marketplace OAuth credentials.
// Token values are encrypted before they reach the table and decrypted on
// the way out.
type CredentialRepository struct {
	db     *sqlx.DB
	cipher *utils.TokenCipher
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *sqlx.DB, cipher *utils.TokenCipher) *CredentialRepository {
	return &CredentialRepository{db: db, cipher: cipher}
}

// Get returns the credential for a tenant with decrypted token values.
func (r *CredentialRepository) Get(tenantID int64) (*models.Credential, error) {
	const q = `SELECT * FROM marketplace_credentials WHERE tenant_id = $1 LIMIT 1`
	var c models.Credential
	if err := r.db.Get(&c, q, tenantID); err != nil {
		return nil, err
	}

	var err error
	if c.AccessToken, err = r.cipher.Decrypt(c.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	if c.RefreshToken != "" {
		if c.RefreshToken, err = r.cipher.Decrypt(c.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
		}
	}
	return &c, nil
}

// Upsert stores a credential, replacing any previous one for the tenant.
// Both tokens and both expiries are written in a single statement so a
// refresh can never be half-persisted.
func (r *CredentialRepository) Upsert(c *models.Credential) error {
	access, err := r.cipher.Encrypt(c.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh := ""
	if c.RefreshToken != "" {
		if refresh, err = r.cipher.Encrypt(c.RefreshToken); err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	const q = `
        INSERT INTO marketplace_credentials (tenant_id, access_token, refresh_token, access_expires_at, refresh_expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (tenant_id) DO UPDATE SET
            access_token = EXCLUDED.access_token,
            refresh_token = EXCLUDED.refresh_token,
            access_expires_at = EXCLUDED.access_expires_at,
            refresh_expires_at = EXCLUDED.refresh_expires_at,
            updated_at = NOW()`

	_, err = r.db.Exec(q, c.TenantID, access, refresh, c.AccessExpiresAt, c.RefreshExpiresAt)
	return err
}

// Delete removes the credential of a tenant (disconnect).
func (r *CredentialRepository) Delete(tenantID int64) error {
	_, err := r.db.Exec(`DELETE FROM marketplace_credentials WHERE tenant_id = $1`, tenantID)
	return err
}

// ConnectedTenantIDs lists tenants that have a stored credential. The order
// sync worker iterates these.
func (r *CredentialRepository) ConnectedTenantIDs() ([]int64, error) {
	var ids []int64
	if err := r.db.Select(&ids, `SELECT tenant_id FROM marketplace_credentials ORDER BY tenant_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
