package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		raw      string
		category string
		want     ebay.Condition
	}{
		{"New", "electronics", ebay.ConditionNew},
		{"  nwt ", "apparel", ebay.ConditionNew},
		{"like new", "trading_cards", ebay.ConditionLikeNew},
		{"good", "electronics", ebay.ConditionUsedGood},
		{"certified refurbished", "electronics", ebay.ConditionCertifiedRefurb},
		// Unknown vocabulary falls back to USED_GOOD.
		{"kinda okay", "electronics", ebay.ConditionUsedGood},
		// Sneakers do not accept LIKE_NEW; schema fallback applies.
		{"like new", "sneakers", ebay.ConditionUsedExcellent},
		// Refurbished is not allowed for apparel; fallback applies.
		{"refurbished", "apparel", ebay.ConditionUsedVeryGood},
		// Unknown category uses the default schema, which allows everything.
		{"for parts", "no-such-category", ebay.ConditionForPartsNotWorking},
	}
	for _, tt := range tests {
		got := NormalizeCondition(tt.raw, SchemaFor(tt.category))
		if got != tt.want {
			t.Errorf("NormalizeCondition(%q, %q) = %s, want %s", tt.raw, tt.category, got, tt.want)
		}
	}
}

func TestBuildListingFixedPrice(t *testing.T) {
	p := testProduct(1, "SKU-1", 3)
	p.Attributes = models.AttributeMap{"brand": "Acme", "storage": "256 GB", "weird_key": "x"}
	tenant := testTenant()

	item, offer, err := BuildListing(BuildInput{Product: p, Tenant: tenant})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}

	if item.Condition != ebay.ConditionUsedGood {
		t.Errorf("condition = %s", item.Condition)
	}
	if got := item.Availability.ShipToLocationAvailability.Quantity; got != 3 {
		t.Errorf("availability quantity = %d", got)
	}
	if got := item.Product.Aspects["Brand"]; len(got) != 1 || got[0] != "Acme" {
		t.Errorf("Brand aspect = %v", got)
	}
	if got := item.Product.Aspects["Storage Capacity"]; len(got) != 1 || got[0] != "256 GB" {
		t.Errorf("Storage Capacity aspect = %v", got)
	}
	if got := item.Product.Aspects["weird_key"]; len(got) != 1 {
		t.Errorf("unmapped aspect should pass through, got %v", got)
	}

	if offer.Format != ebay.FormatFixedPrice {
		t.Errorf("format = %s", offer.Format)
	}
	if offer.CategoryID != "293" {
		t.Errorf("category id = %s", offer.CategoryID)
	}
	if offer.PricingSummary.Price == nil || offer.PricingSummary.Price.Value != "25.50" {
		t.Errorf("price = %+v", offer.PricingSummary.Price)
	}
	if offer.PricingSummary.AuctionStartPrice != nil {
		t.Error("fixed price offer must not carry auction pricing")
	}
	if offer.ListingPolicies.FulfillmentPolicyID != "fp-1" || offer.ListingPolicies.ReturnPolicyID != "rp-1" {
		t.Errorf("policies = %+v", offer.ListingPolicies)
	}
}

func TestBuildDescriptionAppendsFooterOnce(t *testing.T) {
	footer := "Ships within 1 business day."

	got := buildDescription("A nice item.", footer)
	if !strings.HasSuffix(got, footer) {
		t.Fatalf("footer missing: %q", got)
	}
	// Building again from the already-footered description must not stack.
	again := buildDescription(got, footer)
	if again != got {
		t.Errorf("footer appended twice: %q", again)
	}
	if n := strings.Count(again, footer); n != 1 {
		t.Errorf("footer occurs %d times", n)
	}

	if buildDescription("", footer) != footer {
		t.Error("empty description should become the footer alone")
	}
	if buildDescription("text", "") != "text" {
		t.Error("empty footer should leave description untouched")
	}
}

func TestBuildListingCapsImages(t *testing.T) {
	p := testProduct(1, "SKU-1", 1)
	for i := 0; i < 30; i++ {
		p.Photos = append(p.Photos, fmt.Sprintf("https://img.example/%d.jpg", i))
	}

	item, _, err := BuildListing(BuildInput{Product: p, Tenant: testTenant()})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}
	if len(item.Product.ImageURLs) != maxListingImages {
		t.Errorf("image count = %d, want %d", len(item.Product.ImageURLs), maxListingImages)
	}
	if item.Product.ImageURLs[0] != "https://img.example/0.jpg" {
		t.Errorf("image order changed: %s", item.Product.ImageURLs[0])
	}
}

func TestBuildListingAuctionPricing(t *testing.T) {
	start, reserve, bin := 10.0, 20.0, 50.0
	p := testProduct(1, "SKU-1", 1)
	p.Format = models.FormatAuction
	p.StartPrice = &start
	p.ReservePrice = &reserve
	p.BuyItNow = &bin

	_, offer, err := BuildListing(BuildInput{Product: p, Tenant: testTenant()})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}
	ps := offer.PricingSummary
	if ps.AuctionStartPrice == nil || ps.AuctionStartPrice.Value != "10.00" {
		t.Errorf("start price = %+v", ps.AuctionStartPrice)
	}
	if ps.AuctionReservePrice == nil || ps.AuctionReservePrice.Value != "20.00" {
		t.Errorf("reserve price = %+v", ps.AuctionReservePrice)
	}
	if ps.BuyItNowPrice == nil || ps.BuyItNowPrice.Value != "50.00" {
		t.Errorf("buy it now = %+v", ps.BuyItNowPrice)
	}
	if ps.Price != nil {
		t.Error("auction offer must not carry a fixed price")
	}
}

func TestBuildListingAuctionRequiresStartPrice(t *testing.T) {
	p := testProduct(1, "SKU-1", 1)
	p.Format = models.FormatAuction

	if _, _, err := BuildListing(BuildInput{Product: p, Tenant: testTenant()}); err == nil {
		t.Fatal("expected error for auction without start price")
	}
}

func TestAuctionWithoutBuyItNowNeedsDeferredPaymentPolicy(t *testing.T) {
	start := 10.0
	p := testProduct(1, "SKU-1", 1)
	p.Format = models.FormatAuction
	p.StartPrice = &start
	tenant := testTenant()

	// Only immediate-pay policies configured: configuration error.
	policies := []ebay.PaymentPolicy{{PaymentPolicyID: "pp-1", ImmediatePay: true}}
	_, _, err := BuildListing(BuildInput{Product: p, Tenant: tenant, PaymentPolicies: policies})
	if !utils.IsConfigurationError(err) {
		t.Fatalf("err = %v, want configuration error", err)
	}

	// A deferred policy exists but is not the preferred one: it gets picked.
	policies = append(policies, ebay.PaymentPolicy{PaymentPolicyID: "pp-2", ImmediatePay: false})
	_, offer, err := BuildListing(BuildInput{Product: p, Tenant: tenant, PaymentPolicies: policies})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}
	if offer.ListingPolicies.PaymentPolicyID != "pp-2" {
		t.Errorf("payment policy = %s, want pp-2", offer.ListingPolicies.PaymentPolicyID)
	}

	// The preferred policy allows deferred payment: it wins.
	policies = []ebay.PaymentPolicy{
		{PaymentPolicyID: "pp-1", ImmediatePay: false},
		{PaymentPolicyID: "pp-2", ImmediatePay: false},
	}
	_, offer, err = BuildListing(BuildInput{Product: p, Tenant: tenant, PaymentPolicies: policies})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}
	if offer.ListingPolicies.PaymentPolicyID != "pp-1" {
		t.Errorf("payment policy = %s, want preferred pp-1", offer.ListingPolicies.PaymentPolicyID)
	}

	// With a buy-it-now price the immediate-pay preference is fine.
	bin := 50.0
	p.BuyItNow = &bin
	policies = []ebay.PaymentPolicy{{PaymentPolicyID: "pp-1", ImmediatePay: true}}
	_, offer, err = BuildListing(BuildInput{Product: p, Tenant: tenant, PaymentPolicies: policies})
	if err != nil {
		t.Fatalf("BuildListing: %v", err)
	}
	if offer.ListingPolicies.PaymentPolicyID != "pp-1" {
		t.Errorf("payment policy = %s", offer.ListingPolicies.PaymentPolicyID)
	}
}

func TestBuildListingMissingPoliciesIsConfigurationError(t *testing.T) {
	p := testProduct(1, "SKU-1", 1)
	tenant := testTenant()
	tenant.FulfillmentPolicyID = ""

	_, _, err := BuildListing(BuildInput{Product: p, Tenant: tenant})
	if !utils.IsConfigurationError(err) {
		t.Errorf("err = %v, want configuration error", err)
	}
}
