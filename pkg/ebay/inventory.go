package ebay

import (
	"context"
	"net/http"
	"net/url"
)

// UpsertInventoryItem creates or replaces the inventory item for a SKU.
// The call is idempotent: repeating it with the same payload is safe.
func (c *Client) UpsertInventoryItem(ctx context.Context, token, sku string, item *InventoryItem) error {
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	return c.doRequest(ctx, http.MethodPut, path, token, item, nil)
}

// DeleteInventoryItem removes the inventory item for a SKU, ending any
// offers attached to it.
func (c *Client) DeleteInventoryItem(ctx context.Context, token, sku string) error {
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	return c.doRequest(ctx, http.MethodDelete, path, token, nil, nil)
}

// GetOffersBySKU queries the offer collection for a SKU. The marketplace
// returns at most one offer per (SKU, marketplace, format) in practice.
func (c *Client) GetOffersBySKU(ctx context.Context, token, sku string) (*OffersResponse, error) {
	path := "/sell/inventory/v1/offer?sku=" + url.QueryEscape(sku)
	var resp OffersResponse
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		// The offer query reports 404 for a SKU with no offers; callers
		// want an empty collection for that.
		if IsNotFound(err) {
			return &OffersResponse{}, nil
		}
		return nil, err
	}
	return &resp, nil
}

// CreateOffer creates a new offer and returns its id.
func (c *Client) CreateOffer(ctx context.Context, token string, offer *Offer) (string, error) {
	var resp struct {
		OfferID string `json:"offerId"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/sell/inventory/v1/offer", token, offer, &resp); err != nil {
		return "", err
	}
	return resp.OfferID, nil
}

// UpdateOffer replaces an existing offer's payload.
func (c *Client) UpdateOffer(ctx context.Context, token, offerID string, offer *Offer) error {
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID)
	return c.doRequest(ctx, http.MethodPut, path, token, offer, nil)
}

// PublishOffer publishes (or re-publishes) an offer, returning the live
// listing id.
func (c *Client) PublishOffer(ctx context.Context, token, offerID string) (string, error) {
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID) + "/publish"
	var resp PublishResponse
	if err := c.doRequest(ctx, http.MethodPost, path, token, nil, &resp); err != nil {
		return "", err
	}
	return resp.ListingID, nil
}

// WithdrawOffer ends the published listing of an offer.
func (c *Client) WithdrawOffer(ctx context.Context, token, offerID string) error {
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID) + "/withdraw"
	return c.doRequest(ctx, http.MethodPost, path, token, nil, nil)
}

// UpdateOfferQuantity pushes a new available quantity for a live offer via
// the price/quantity bulk endpoint, leaving the rest of the offer untouched.
func (c *Client) UpdateOfferQuantity(ctx context.Context, token, sku, offerID string, quantity int) error {
	body := map[string]any{
		"requests": []map[string]any{
			{
				"sku": sku,
				"offers": []map[string]any{
					{"offerId": offerID, "availableQuantity": quantity},
				},
			},
		},
	}
	return c.doRequest(ctx, http.MethodPost, "/sell/inventory/v1/bulk_update_price_quantity", token, body, nil)
}
