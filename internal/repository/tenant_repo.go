package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/shelfline/marketsync/internal/models"
)

// TenantRepository handles data access for tenants and their sync settings.
type TenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db *sqlx.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID returns a tenant by id.
func (r *TenantRepository) GetByID(id int64) (*models.Tenant, error) {
	const q = `SELECT * FROM tenants WHERE id = $1 LIMIT 1`
	var t models.Tenant
	if err := r.db.Get(&t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByAPIKey returns the tenant owning an API key.
func (r *TenantRepository) GetByAPIKey(apiKey string) (*models.Tenant, error) {
	const q = `SELECT * FROM tenants WHERE api_key = $1 LIMIT 1`
	var t models.Tenant
	if err := r.db.Get(&t, q, apiKey); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByMarketplaceUserID returns the tenant connected as the given
// marketplace seller account. Webhook notifications are resolved this way.
func (r *TenantRepository) GetByMarketplaceUserID(userID string) (*models.Tenant, error) {
	const q = `SELECT * FROM tenants WHERE marketplace_user_id = $1 LIMIT 1`
	var t models.Tenant
	if err := r.db.Get(&t, q, userID); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateSettings persists the sync-relevant tenant settings.
func (r *TenantRepository) UpdateSettings(t *models.Tenant) error {
	const q = `
        UPDATE tenants SET
            description_footer = $1,
            fulfillment_policy_id = $2,
            payment_policy_id = $3,
            return_policy_id = $4,
            merchant_location_key = $5,
            location_postal_code = $6,
            location_country = $7,
            updated_at = NOW()
        WHERE id = $8
        RETURNING updated_at`
	return r.db.QueryRowx(q,
		t.DescriptionFooter,
		t.FulfillmentPolicyID,
		t.PaymentPolicyID,
		t.ReturnPolicyID,
		t.MerchantLocationKey,
		t.LocationPostalCode,
		t.LocationCountry,
		t.ID,
	).Scan(&t.UpdatedAt)
}
