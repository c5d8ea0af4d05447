package models

import (
	"time"

	"github.com/lib/pq"
)

// PlatformEbay is the marketplace key used in platform_ids / exported_to maps.
const PlatformEbay = "ebay"

// Product is a catalog record owned by a tenant. The SKU is the stable
// identifier used to key the record against marketplace inventory items.
type Product struct {
	ID           int64          `db:"id" json:"id"`
	TenantID     int64          `db:"tenant_id" json:"tenantId"`
	SKU          string         `db:"sku" json:"sku"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	CategoryCode string         `db:"category_code" json:"categoryCode"`
	Condition    string         `db:"condition" json:"condition"`
	Quantity     int            `db:"quantity" json:"quantity"`
	Price        float64        `db:"price" json:"price"`
	Currency     string         `db:"currency" json:"currency"`
	Format       ListingFormat  `db:"format" json:"format"`
	StartPrice   *float64       `db:"start_price" json:"startPrice,omitempty"`
	ReservePrice *float64       `db:"reserve_price" json:"reservePrice,omitempty"`
	BuyItNow     *float64       `db:"buy_it_now" json:"buyItNow,omitempty"`
	Attributes   AttributeMap   `db:"attributes" json:"attributes"`
	Photos       pq.StringArray `db:"photos" json:"photos"`

	// Marketplace linkage. Invariant: ExportedTo[m] is set iff PlatformIDs[m] is set.
	PlatformIDs StringMap `db:"platform_ids" json:"platformIds"`
	ExportedTo  TimeMap   `db:"exported_to" json:"exportedTo"`

	// Sale state. Invariant: Sold implies Quantity == 0.
	Sold         bool       `db:"sold" json:"sold"`
	SoldAt       *time.Time `db:"sold_at" json:"soldAt,omitempty"`
	SoldPrice    *float64   `db:"sold_price" json:"soldPrice,omitempty"`
	SoldPlatform *string    `db:"sold_platform" json:"soldPlatform,omitempty"`

	// Dedupe marker recorded once an inbound sale line item has been applied.
	RemoteOrderID    *string `db:"remote_order_id" json:"remoteOrderId,omitempty"`
	RemoteLineItemID *string `db:"remote_line_item_id" json:"remoteLineItemId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ListingFormat is the marketplace listing format.
type ListingFormat string

const (
	FormatFixedPrice ListingFormat = "FIXED_PRICE"
	FormatAuction    ListingFormat = "AUCTION"
)

// HasDedupeMarker reports whether this record already carries the
// (order id, line item id) pair, i.e. the sale has been applied.
func (p *Product) HasDedupeMarker(orderID, lineItemID string) bool {
	return p.RemoteOrderID != nil && *p.RemoteOrderID == orderID &&
		p.RemoteLineItemID != nil && *p.RemoteLineItemID == lineItemID
}

// SetDedupeMarker records the order/line-item pair on the record.
func (p *Product) SetDedupeMarker(orderID, lineItemID string) {
	p.RemoteOrderID = &orderID
	p.RemoteLineItemID = &lineItemID
}
