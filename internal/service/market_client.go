package service

import (
	"context"
	"time"

	"github.com/shelfline/marketsync/pkg/ebay"
)

// marketClient is the slice of the marketplace client the sync services use.
// Tests swap in fakes; production wires *ebay.Client.
type marketClient interface {
	UpsertInventoryItem(ctx context.Context, token, sku string, item *ebay.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, token, sku string) error
	GetOffersBySKU(ctx context.Context, token, sku string) (*ebay.OffersResponse, error)
	CreateOffer(ctx context.Context, token string, offer *ebay.Offer) (string, error)
	UpdateOffer(ctx context.Context, token, offerID string, offer *ebay.Offer) error
	PublishOffer(ctx context.Context, token, offerID string) (string, error)
	WithdrawOffer(ctx context.Context, token, offerID string) error
	UpdateOfferQuantity(ctx context.Context, token, sku, offerID string, quantity int) error
	GetPaymentPolicies(ctx context.Context, token, marketplaceID string) (*ebay.PaymentPoliciesResponse, error)
	GetInventoryLocations(ctx context.Context, token string) (*ebay.LocationsResponse, error)
	CreateInventoryLocation(ctx context.Context, token, key string, loc *ebay.InventoryLocation) error
	GetOrders(ctx context.Context, token string, createdAfter time.Time) ([]ebay.Order, error)
}
