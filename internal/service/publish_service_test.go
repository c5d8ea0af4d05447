package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

func newPublishFixture(products *fakeProducts, market *fakeMarket) (*PublishService, *fakeAudit) {
	creds := &fakeCreds{cred: validCredential(1)}
	tokens := NewTokenManager(creds, &fakeOauth{})
	audit := &fakeAudit{}
	tenants := &fakeTenants{tenant: testTenant()}
	svc := NewPublishService(products, tenants, tokens, market, NewAlertService(audit), 2)
	return svc, audit
}

func withLocation(market *fakeMarket) *fakeMarket {
	market.locationsFn = func() (*ebay.LocationsResponse, error) {
		return &ebay.LocationsResponse{
			Locations: []ebay.InventoryLocation{{MerchantLocationKey: "loc-1"}},
		}, nil
	}
	return market
}

func TestRunBatchPublishNewListing(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	products := &fakeProducts{products: []*models.Product{p}}
	market := withLocation(&fakeMarket{})
	svc, _ := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Success != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}

	if len(products.updated) != 1 {
		t.Fatalf("updated %d products, want 1", len(products.updated))
	}
	got := products.updated[0]
	if got.PlatformIDs[models.PlatformEbay] != "listing-1" {
		t.Errorf("platform id = %q", got.PlatformIDs[models.PlatformEbay])
	}
	if _, ok := got.ExportedTo[models.PlatformEbay]; !ok {
		t.Error("exported timestamp not set")
	}
	if models.ListingStateOf(&got, models.PlatformEbay) != models.ListingPublished {
		t.Error("state is not published")
	}

	wantOrder := []string{"createOffer:SKU-10", "publish:offer-1"}
	var seen []string
	for _, call := range market.calls {
		if strings.HasPrefix(call, "createOffer") || strings.HasPrefix(call, "publish:") {
			seen = append(seen, call)
		}
	}
	if len(seen) != 2 || seen[0] != wantOrder[0] || seen[1] != wantOrder[1] {
		t.Errorf("calls = %v, want %v", seen, wantOrder)
	}
}

func TestRunBatchReusesExistingOffer(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	products := &fakeProducts{products: []*models.Product{p}}
	market := withLocation(&fakeMarket{})
	market.offersBySKUFn = func(sku string) (*ebay.OffersResponse, error) {
		return &ebay.OffersResponse{Offers: []ebay.Offer{{
			OfferID:       "existing-offer",
			SKU:           sku,
			MarketplaceID: "EBAY_US",
			Format:        ebay.FormatFixedPrice,
		}}}, nil
	}
	svc, _ := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionUpdate)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v", result)
	}

	for _, call := range market.calls {
		if strings.HasPrefix(call, "createOffer") {
			t.Fatalf("created a new offer instead of updating: %v", market.calls)
		}
	}
	var updated, published bool
	for _, call := range market.calls {
		if call == "updateOffer:existing-offer" {
			updated = true
		}
		if call == "publish:existing-offer" {
			published = true
		}
	}
	if !updated || !published {
		t.Errorf("calls = %v", market.calls)
	}
}

func TestRunBatchIgnoresOfferInDifferentFormat(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	products := &fakeProducts{products: []*models.Product{p}}
	market := withLocation(&fakeMarket{})
	market.offersBySKUFn = func(sku string) (*ebay.OffersResponse, error) {
		return &ebay.OffersResponse{Offers: []ebay.Offer{{
			OfferID:       "auction-offer",
			SKU:           sku,
			MarketplaceID: "EBAY_US",
			Format:        ebay.FormatAuction,
		}}}, nil
	}
	svc, _ := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v", result)
	}

	var created bool
	for _, call := range market.calls {
		if strings.HasPrefix(call, "createOffer") {
			created = true
		}
		if call == "updateOffer:auction-offer" || call == "publish:auction-offer" {
			t.Fatalf("touched the stale auction offer: %v", market.calls)
		}
	}
	if !created {
		t.Errorf("calls = %v, expected a fresh offer", market.calls)
	}
}

func TestRunBatchPublishFailureLeavesLocalStateUntouched(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	products := &fakeProducts{products: []*models.Product{p}}
	market := withLocation(&fakeMarket{})
	market.publishOfferFn = func(string) (string, error) {
		return "", &ebay.APIError{StatusCode: 400, Message: "missing aspects"}
	}
	svc, audit := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Failed != 1 || result.Success != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(products.updated) != 0 {
		t.Error("local state must not change when publish fails")
	}
	if len(audit.alerts) != 1 || audit.alerts[0].Kind != models.AlertError {
		t.Errorf("alerts = %+v", audit.alerts)
	}
}

func TestRunBatchPartialFailure(t *testing.T) {
	good := testProduct(10, "SKU-10", 1)
	bad := testProduct(11, "SKU-11", 1)
	products := &fakeProducts{products: []*models.Product{good, bad}}
	market := withLocation(&fakeMarket{})
	market.upsertInventoryFn = func(sku string, _ *ebay.InventoryItem) error {
		if sku == "SKU-11" {
			return &ebay.APIError{StatusCode: 500, Message: "boom"}
		}
		return nil
	}
	svc, _ := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10, 11, 99}, ActionPublish)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Success != 1 || result.Failed != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v", result.Errors)
	}
	var missing bool
	for _, e := range result.Errors {
		if e == "product 99: "+utils.ErrProductNotFound.Error() {
			missing = true
		}
	}
	if !missing {
		t.Errorf("errors = %v, want a PRODUCT_NOT_FOUND entry for id 99", result.Errors)
	}
}

func TestRunBatchMissingLocationConfigAbortsWholeBatch(t *testing.T) {
	p := testProduct(10, "SKU-10", 1)
	products := &fakeProducts{products: []*models.Product{p}}
	market := &fakeMarket{}
	creds := &fakeCreds{cred: validCredential(1)}
	tokens := NewTokenManager(creds, &fakeOauth{})
	tenant := testTenant()
	tenant.MerchantLocationKey = ""
	svc := NewPublishService(products, &fakeTenants{tenant: tenant}, tokens, market, NewAlertService(&fakeAudit{}), 2)

	_, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if !utils.IsConfigurationError(err) {
		t.Errorf("err = %v, want configuration error", err)
	}
	for _, call := range market.calls {
		if strings.HasPrefix(call, "upsert") {
			t.Errorf("items were touched despite setup failure: %v", market.calls)
		}
	}
}

func TestRunBatchRegistersMissingLocation(t *testing.T) {
	p := testProduct(10, "SKU-10", 1)
	products := &fakeProducts{products: []*models.Product{p}}
	market := &fakeMarket{}
	svc, _ := newPublishFixture(products, market)

	_, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	var created bool
	for _, call := range market.calls {
		if call == "createLocation:loc-1" {
			created = true
		}
	}
	if !created {
		t.Errorf("calls = %v, want location registration", market.calls)
	}
}

func TestRunBatchNotConnected(t *testing.T) {
	products := &fakeProducts{products: []*models.Product{testProduct(10, "SKU-10", 1)}}
	tokens := NewTokenManager(&fakeCreds{}, &fakeOauth{})
	svc := NewPublishService(products, &fakeTenants{tenant: testTenant()}, tokens, &fakeMarket{}, NewAlertService(&fakeAudit{}), 2)

	_, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionPublish)
	if err == nil || !strings.Contains(err.Error(), "MARKETPLACE_NOT_CONNECTED") {
		t.Errorf("err = %v, want not-connected", err)
	}
}

func TestRunBatchEndWithdrawsListing(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	models.MarkPublished(p, models.PlatformEbay, "listing-9", p.CreatedAt)
	products := &fakeProducts{products: []*models.Product{p}}
	market := &fakeMarket{}
	market.offersBySKUFn = func(sku string) (*ebay.OffersResponse, error) {
		return &ebay.OffersResponse{Offers: []ebay.Offer{{OfferID: "offer-9", SKU: sku}}}, nil
	}
	svc, _ := newPublishFixture(products, market)

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionEnd)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(products.updated) != 1 {
		t.Fatalf("updated %d products", len(products.updated))
	}
	got := products.updated[0]
	if _, ok := got.PlatformIDs[models.PlatformEbay]; ok {
		t.Error("platform link not cleared")
	}
	if _, ok := got.ExportedTo[models.PlatformEbay]; ok {
		t.Error("exported timestamp not cleared")
	}
}

func TestRunBatchEndOnUnlistedProductFails(t *testing.T) {
	p := testProduct(10, "SKU-10", 2)
	products := &fakeProducts{products: []*models.Product{p}}
	svc, _ := newPublishFixture(products, &fakeMarket{})

	result, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{10}, ActionEnd)
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunBatchUnknownAction(t *testing.T) {
	svc, _ := newPublishFixture(&fakeProducts{}, &fakeMarket{})
	if _, err := svc.RunBatch(context.Background(), "req-1", 1, []int64{1}, "explode"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
