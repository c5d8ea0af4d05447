package ebay

import "time"

// Condition is the marketplace's finite condition vocabulary.
type Condition string

const (
	ConditionNew                Condition = "NEW"
	ConditionLikeNew            Condition = "LIKE_NEW"
	ConditionNewOther           Condition = "NEW_OTHER"
	ConditionNewWithDefects     Condition = "NEW_WITH_DEFECTS"
	ConditionCertifiedRefurb    Condition = "CERTIFIED_REFURBISHED"
	ConditionSellerRefurb       Condition = "SELLER_REFURBISHED"
	ConditionUsedExcellent      Condition = "USED_EXCELLENT"
	ConditionUsedVeryGood       Condition = "USED_VERY_GOOD"
	ConditionUsedGood           Condition = "USED_GOOD"
	ConditionUsedAcceptable     Condition = "USED_ACCEPTABLE"
	ConditionForPartsNotWorking Condition = "FOR_PARTS_OR_NOT_WORKING"
)

// OfferFormat is the listing format of an offer.
type OfferFormat string

const (
	FormatFixedPrice OfferFormat = "FIXED_PRICE"
	FormatAuction    OfferFormat = "AUCTION"
)

// Amount holds monetary values.
type Amount struct {
	Value    string `json:"value,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// InventoryItem is the marketplace inventory record keyed by SKU.
type InventoryItem struct {
	SKU          string        `json:"sku,omitempty"`
	Locale       string        `json:"locale,omitempty"`
	Condition    Condition     `json:"condition,omitempty"`
	Product      *ProductData  `json:"product,omitempty"`
	Availability *Availability `json:"availability,omitempty"`
}

// ProductData holds product details of an inventory item.
type ProductData struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Aspects     map[string][]string `json:"aspects,omitempty"`
	ImageURLs   []string            `json:"imageUrls,omitempty"`
}

// Availability holds inventory availability.
type Availability struct {
	ShipToLocationAvailability *ShipToLocation `json:"shipToLocationAvailability,omitempty"`
}

// ShipToLocation holds quantity info.
type ShipToLocation struct {
	Quantity int `json:"quantity"`
}

// Offer is the marketplace-side object governing price, policies, and format
// for a listing of a SKU.
type Offer struct {
	OfferID             string           `json:"offerId,omitempty"`
	SKU                 string           `json:"sku,omitempty"`
	MarketplaceID       string           `json:"marketplaceId,omitempty"`
	Format              OfferFormat      `json:"format,omitempty"`
	AvailableQuantity   int              `json:"availableQuantity,omitempty"`
	CategoryID          string           `json:"categoryId,omitempty"`
	ListingDescription  string           `json:"listingDescription,omitempty"`
	MerchantLocationKey string           `json:"merchantLocationKey,omitempty"`
	PricingSummary      *PricingSummary  `json:"pricingSummary,omitempty"`
	ListingPolicies     *ListingPolicies `json:"listingPolicies,omitempty"`
	Status              string           `json:"status,omitempty"`
	Listing             *ListingDetails  `json:"listing,omitempty"`
}

// PricingSummary holds pricing info. Price is used for fixed-price offers;
// the auction fields apply to AUCTION format only.
type PricingSummary struct {
	Price               *Amount `json:"price,omitempty"`
	AuctionStartPrice   *Amount `json:"auctionStartPrice,omitempty"`
	AuctionReservePrice *Amount `json:"auctionReservePrice,omitempty"`
	BuyItNowPrice       *Amount `json:"buyItNowPrice,omitempty"`
}

// ListingPolicies holds policy references.
type ListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	PaymentPolicyID     string `json:"paymentPolicyId,omitempty"`
	ReturnPolicyID      string `json:"returnPolicyId,omitempty"`
}

// ListingDetails holds the published listing info.
type ListingDetails struct {
	ListingID string `json:"listingId,omitempty"`
}

// OffersResponse is the response from the offer collection query.
type OffersResponse struct {
	Offers []Offer `json:"offers,omitempty"`
	Total  int     `json:"total,omitempty"`
}

// PublishResponse is the response from publishing an offer.
type PublishResponse struct {
	ListingID string `json:"listingId"`
}

// FulfillmentPolicy represents a shipping/fulfillment policy.
type FulfillmentPolicy struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	Name                string `json:"name,omitempty"`
	MarketplaceID       string `json:"marketplaceId,omitempty"`
}

// PaymentPolicy represents a payment policy. ImmediatePay false allows
// deferred payment, required for auctions without a buy-it-now price.
type PaymentPolicy struct {
	PaymentPolicyID string `json:"paymentPolicyId,omitempty"`
	Name            string `json:"name,omitempty"`
	MarketplaceID   string `json:"marketplaceId,omitempty"`
	ImmediatePay    bool   `json:"immediatePay,omitempty"`
}

// ReturnPolicy represents a return policy.
type ReturnPolicy struct {
	ReturnPolicyID  string `json:"returnPolicyId,omitempty"`
	Name            string `json:"name,omitempty"`
	MarketplaceID   string `json:"marketplaceId,omitempty"`
	ReturnsAccepted bool   `json:"returnsAccepted,omitempty"`
}

// FulfillmentPoliciesResponse is the fulfillment policy listing.
type FulfillmentPoliciesResponse struct {
	FulfillmentPolicies []FulfillmentPolicy `json:"fulfillmentPolicies,omitempty"`
	Total               int                 `json:"total,omitempty"`
}

// PaymentPoliciesResponse is the payment policy listing.
type PaymentPoliciesResponse struct {
	PaymentPolicies []PaymentPolicy `json:"paymentPolicies,omitempty"`
	Total           int             `json:"total,omitempty"`
}

// ReturnPoliciesResponse is the return policy listing.
type ReturnPoliciesResponse struct {
	ReturnPolicies []ReturnPolicy `json:"returnPolicies,omitempty"`
	Total          int            `json:"total,omitempty"`
}

// InventoryLocation is a merchant location usable by offers.
type InventoryLocation struct {
	MerchantLocationKey    string          `json:"merchantLocationKey,omitempty"`
	Name                   string          `json:"name,omitempty"`
	MerchantLocationStatus string          `json:"merchantLocationStatus,omitempty"`
	Location               *LocationDetail `json:"location,omitempty"`
}

// LocationDetail holds the physical address of a location.
type LocationDetail struct {
	Address *Address `json:"address,omitempty"`
}

// Address is a postal address.
type Address struct {
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// LocationsResponse is the inventory location listing.
type LocationsResponse struct {
	Locations []InventoryLocation `json:"locations,omitempty"`
	Total     int                 `json:"total,omitempty"`
}

// Order is a remote order with its line items.
type Order struct {
	OrderID      string     `json:"orderId"`
	CreationDate time.Time  `json:"creationDate"`
	OrderPaymentStatus string `json:"orderPaymentStatus,omitempty"`
	LineItems    []LineItem `json:"lineItems"`
}

// LineItem is one purchased position of an order.
type LineItem struct {
	LineItemID   string  `json:"lineItemId"`
	SKU          string  `json:"sku,omitempty"`
	LegacyItemID string  `json:"legacyItemId,omitempty"`
	Quantity     int     `json:"quantity"`
	LineItemCost *Amount `json:"lineItemCost,omitempty"`
}

// OrdersResponse is the order listing filtered by creation date.
type OrdersResponse struct {
	Orders []Order `json:"orders,omitempty"`
	Total  int     `json:"total,omitempty"`
	Next   string  `json:"next,omitempty"`
}
