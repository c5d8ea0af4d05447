package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// fakeMarket implements marketClient with overridable behavior per call.
// Unset hooks succeed with empty results. Every call is recorded in order.
// Batch operations run items concurrently, so recording takes a lock.
type fakeMarket struct {
	mu    sync.Mutex
	calls []string

	upsertInventoryFn func(sku string, item *ebay.InventoryItem) error
	deleteInventoryFn func(sku string) error
	offersBySKUFn     func(sku string) (*ebay.OffersResponse, error)
	createOfferFn     func(offer *ebay.Offer) (string, error)
	updateOfferFn     func(offerID string, offer *ebay.Offer) error
	publishOfferFn    func(offerID string) (string, error)
	withdrawOfferFn   func(offerID string) error
	updateQuantityFn  func(sku, offerID string, quantity int) error
	paymentPoliciesFn func(marketplaceID string) (*ebay.PaymentPoliciesResponse, error)
	locationsFn       func() (*ebay.LocationsResponse, error)
	createLocationFn  func(key string, loc *ebay.InventoryLocation) error
	ordersFn          func(createdAfter time.Time) ([]ebay.Order, error)
}

func (f *fakeMarket) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeMarket) UpsertInventoryItem(_ context.Context, _, sku string, item *ebay.InventoryItem) error {
	f.record("upsert:" + sku)
	if f.upsertInventoryFn != nil {
		return f.upsertInventoryFn(sku, item)
	}
	return nil
}

func (f *fakeMarket) DeleteInventoryItem(_ context.Context, _, sku string) error {
	f.record("deleteInventory:" + sku)
	if f.deleteInventoryFn != nil {
		return f.deleteInventoryFn(sku)
	}
	return nil
}

func (f *fakeMarket) GetOffersBySKU(_ context.Context, _, sku string) (*ebay.OffersResponse, error) {
	f.record("offers:" + sku)
	if f.offersBySKUFn != nil {
		return f.offersBySKUFn(sku)
	}
	return &ebay.OffersResponse{}, nil
}

func (f *fakeMarket) CreateOffer(_ context.Context, _ string, offer *ebay.Offer) (string, error) {
	f.record("createOffer:" + offer.SKU)
	if f.createOfferFn != nil {
		return f.createOfferFn(offer)
	}
	return "offer-1", nil
}

func (f *fakeMarket) UpdateOffer(_ context.Context, _, offerID string, offer *ebay.Offer) error {
	f.record("updateOffer:" + offerID)
	if f.updateOfferFn != nil {
		return f.updateOfferFn(offerID, offer)
	}
	return nil
}

func (f *fakeMarket) PublishOffer(_ context.Context, _, offerID string) (string, error) {
	f.record("publish:" + offerID)
	if f.publishOfferFn != nil {
		return f.publishOfferFn(offerID)
	}
	return "listing-1", nil
}

func (f *fakeMarket) WithdrawOffer(_ context.Context, _, offerID string) error {
	f.record("withdraw:" + offerID)
	if f.withdrawOfferFn != nil {
		return f.withdrawOfferFn(offerID)
	}
	return nil
}

func (f *fakeMarket) UpdateOfferQuantity(_ context.Context, _, sku, offerID string, quantity int) error {
	f.record(fmt.Sprintf("updateQuantity:%s:%d", sku, quantity))
	if f.updateQuantityFn != nil {
		return f.updateQuantityFn(sku, offerID, quantity)
	}
	return nil
}

func (f *fakeMarket) GetPaymentPolicies(_ context.Context, _, marketplaceID string) (*ebay.PaymentPoliciesResponse, error) {
	f.record("paymentPolicies")
	if f.paymentPoliciesFn != nil {
		return f.paymentPoliciesFn(marketplaceID)
	}
	return &ebay.PaymentPoliciesResponse{}, nil
}

func (f *fakeMarket) GetInventoryLocations(_ context.Context, _ string) (*ebay.LocationsResponse, error) {
	f.record("locations")
	if f.locationsFn != nil {
		return f.locationsFn()
	}
	return &ebay.LocationsResponse{}, nil
}

func (f *fakeMarket) CreateInventoryLocation(_ context.Context, _, key string, loc *ebay.InventoryLocation) error {
	f.record("createLocation:" + key)
	if f.createLocationFn != nil {
		return f.createLocationFn(key, loc)
	}
	return nil
}

func (f *fakeMarket) GetOrders(_ context.Context, _ string, createdAfter time.Time) ([]ebay.Order, error) {
	f.record("orders")
	if f.ordersFn != nil {
		return f.ordersFn(createdAfter)
	}
	return nil, nil
}

// fakeCreds implements credentialStore and connectedTenants.
type fakeCreds struct {
	cred     *models.Credential
	getErr   error
	upserted []models.Credential
	deleted  []int64
	ids      []int64
}

func (f *fakeCreds) Get(tenantID int64) (*models.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cred == nil || f.cred.TenantID != tenantID {
		return nil, sql.ErrNoRows
	}
	c := *f.cred
	return &c, nil
}

func (f *fakeCreds) Upsert(c *models.Credential) error {
	f.upserted = append(f.upserted, *c)
	cc := *c
	f.cred = &cc
	return nil
}

func (f *fakeCreds) Delete(tenantID int64) error {
	f.deleted = append(f.deleted, tenantID)
	f.cred = nil
	return nil
}

func (f *fakeCreds) ConnectedTenantIDs() ([]int64, error) {
	return f.ids, nil
}

// fakeOauth implements tokenRefresher.
type fakeOauth struct {
	token    *ebay.Token
	err      error
	refreshs int
}

func (f *fakeOauth) RefreshAccessToken(_ context.Context, _ string) (*ebay.Token, error) {
	f.refreshs++
	if f.err != nil {
		return nil, f.err
	}
	return f.token, nil
}

// fakeAudit implements auditStore, collecting writes.
type fakeAudit struct {
	logs   []models.SyncLog
	alerts []models.Alert
}

func (f *fakeAudit) CreateLog(e *models.SyncLog) error {
	f.logs = append(f.logs, *e)
	return nil
}

func (f *fakeAudit) CreateAlert(a *models.Alert) error {
	f.alerts = append(f.alerts, *a)
	return nil
}

func (f *fakeAudit) ListAlerts(int64, int) ([]models.Alert, error) {
	return f.alerts, nil
}

// fakeProducts implements the product store slices the services consume.
type fakeProducts struct {
	mu       sync.Mutex
	products []*models.Product
	updated  []models.Product
	splits   []models.Product

	updateErr error
}

func (f *fakeProducts) find(match func(p *models.Product) bool) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if match(p) {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProducts) GetBySKU(tenantID int64, sku string) (*models.Product, error) {
	return f.find(func(p *models.Product) bool { return p.TenantID == tenantID && p.SKU == sku })
}

func (f *fakeProducts) GetByPlatformID(tenantID int64, marketplace, remoteID string) (*models.Product, error) {
	return f.find(func(p *models.Product) bool {
		return p.TenantID == tenantID && p.PlatformIDs[marketplace] == remoteID
	})
}

func (f *fakeProducts) GetByIDs(tenantID int64, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		for _, p := range f.products {
			if p.TenantID == tenantID && p.ID == id {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (f *fakeProducts) GetListed(tenantID int64, marketplace string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.TenantID == tenantID {
			if _, ok := p.PlatformIDs[marketplace]; ok {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (f *fakeProducts) Update(p *models.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, *p)
	for _, existing := range f.products {
		if existing.ID == p.ID {
			*existing = *p
		}
	}
	return nil
}

func (f *fakeProducts) CreateSplit(p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(1000 + len(f.splits))
	f.splits = append(f.splits, *p)
	f.products = append(f.products, p)
	return nil
}

func (f *fakeProducts) HasDedupeMarker(tenantID int64, orderID, lineItemID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.TenantID == tenantID && p.HasDedupeMarker(orderID, lineItemID) {
			return true, nil
		}
	}
	return false, nil
}

// fakeTenants implements tenantStore and webhookTenantStore.
type fakeTenants struct {
	tenant *models.Tenant
}

func (f *fakeTenants) GetByID(id int64) (*models.Tenant, error) {
	if f.tenant == nil || f.tenant.ID != id {
		return nil, sql.ErrNoRows
	}
	t := *f.tenant
	return &t, nil
}

func (f *fakeTenants) GetByMarketplaceUserID(userID string) (*models.Tenant, error) {
	if f.tenant == nil || f.tenant.MarketplaceUserID != userID {
		return nil, sql.ErrNoRows
	}
	t := *f.tenant
	return &t, nil
}

// fakeDeduper implements notificationDeduper.
type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) MarkSeen(_ context.Context, tenantID int64, notificationID string) bool {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := fmt.Sprintf("%d:%s", tenantID, notificationID)
	if f.seen[key] {
		return true
	}
	f.seen[key] = true
	return false
}

// validCredential returns a credential whose access token is far from expiry.
func validCredential(tenantID int64) *models.Credential {
	return &models.Credential{
		TenantID:         tenantID,
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		AccessExpiresAt:  time.Now().Add(2 * time.Hour),
		RefreshExpiresAt: time.Now().Add(500 * 24 * time.Hour),
	}
}

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:                  1,
		Name:                "Test Seller",
		IsActive:            true,
		MarketplaceID:       "EBAY_US",
		MarketplaceUserID:   "seller-1",
		DescriptionFooter:   "Ships within 1 business day.",
		FulfillmentPolicyID: "fp-1",
		PaymentPolicyID:     "pp-1",
		ReturnPolicyID:      "rp-1",
		MerchantLocationKey: "loc-1",
		LocationPostalCode:  "97201",
		LocationCountry:     "US",
	}
}

func testProduct(id int64, sku string, quantity int) *models.Product {
	return &models.Product{
		ID:           id,
		TenantID:     1,
		SKU:          sku,
		Title:        "Test Item " + sku,
		Description:  "A nice item.",
		CategoryCode: "electronics",
		Condition:    "good",
		Quantity:     quantity,
		Price:        25.50,
		Currency:     "USD",
		Format:       models.FormatFixedPrice,
		PlatformIDs:  models.StringMap{},
		ExportedTo:   models.TimeMap{},
	}
}
