package ebay

import (
	"context"
	"net/http"
	"net/url"
)

// GetFulfillmentPolicies retrieves the tenant's fulfillment policies.
func (c *Client) GetFulfillmentPolicies(ctx context.Context, token, marketplaceID string) (*FulfillmentPoliciesResponse, error) {
	path := "/sell/account/v1/fulfillment_policy?marketplace_id=" + url.QueryEscape(marketplaceID)
	var resp FulfillmentPoliciesResponse
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetPaymentPolicies retrieves the tenant's payment policies.
func (c *Client) GetPaymentPolicies(ctx context.Context, token, marketplaceID string) (*PaymentPoliciesResponse, error) {
	path := "/sell/account/v1/payment_policy?marketplace_id=" + url.QueryEscape(marketplaceID)
	var resp PaymentPoliciesResponse
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReturnPolicies retrieves the tenant's return policies.
func (c *Client) GetReturnPolicies(ctx context.Context, token, marketplaceID string) (*ReturnPoliciesResponse, error) {
	path := "/sell/account/v1/return_policy?marketplace_id=" + url.QueryEscape(marketplaceID)
	var resp ReturnPoliciesResponse
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInventoryLocations lists the tenant's merchant locations.
func (c *Client) GetInventoryLocations(ctx context.Context, token string) (*LocationsResponse, error) {
	var resp LocationsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/sell/inventory/v1/location?limit=100", token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateInventoryLocation registers a merchant location under the given key.
func (c *Client) CreateInventoryLocation(ctx context.Context, token, key string, loc *InventoryLocation) error {
	path := "/sell/inventory/v1/location/" + url.PathEscape(key)
	return c.doRequest(ctx, http.MethodPost, path, token, loc, nil)
}
