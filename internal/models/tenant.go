package models

import "time"

// Tenant represents a seller account using the sync engine. Settings the
// engine consumes (footer, policies, sandbox flag) live here; the rest of
// tenant administration is handled elsewhere.
type Tenant struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	APIKey   string `db:"api_key" json:"apiKey,omitempty"`
	IsActive bool   `db:"is_active" json:"isActive"`

	// Marketplace preferences
	MarketplaceID     string `db:"marketplace_id" json:"marketplaceId"` // e.g. EBAY_US
	MarketplaceUserID string `db:"marketplace_user_id" json:"marketplaceUserId"`
	Sandbox           bool   `db:"sandbox" json:"sandbox"`
	DescriptionFooter string `db:"description_footer" json:"descriptionFooter"`

	// Preferred listing policies. Empty means "pick from the account's
	// configured policies at publish time".
	FulfillmentPolicyID string `db:"fulfillment_policy_id" json:"fulfillmentPolicyId"`
	PaymentPolicyID     string `db:"payment_policy_id" json:"paymentPolicyId"`
	ReturnPolicyID      string `db:"return_policy_id" json:"returnPolicyId"`

	// Inventory location used for published offers.
	MerchantLocationKey string `db:"merchant_location_key" json:"merchantLocationKey"`
	LocationPostalCode  string `db:"location_postal_code" json:"locationPostalCode"`
	LocationCountry     string `db:"location_country" json:"locationCountry"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
