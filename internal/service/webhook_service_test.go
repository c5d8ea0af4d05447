package service

import (
	"context"
	"testing"
	"time"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/pkg/ebay"
)

func newWebhookFixture(products *fakeProducts) (*WebhookService, *fakeAudit, *fakeDeduper) {
	audit := &fakeAudit{}
	seen := &fakeDeduper{}
	tenants := &fakeTenants{tenant: testTenant()}
	return NewWebhookService(tenants, products, seen, NewAlertService(audit)), audit, seen
}

func soldNotification(sku string, quantity int) *Notification {
	price := 25.50
	return &Notification{
		NotificationID:  "notif-1",
		Topic:           TopicItemSold,
		RecipientUserID: "seller-1",
		SKU:             sku,
		OrderID:         "order-1",
		LineItemID:      "line-1",
		Quantity:        quantity,
		Price:           &price,
	}
}

func TestChallengeResponse(t *testing.T) {
	// Digest over the concatenation of code, token, and endpoint. The pair
	// below hashes the same bytes, so splitting must not change the result.
	got := ChallengeResponse("a", "b", "c")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("ChallengeResponse = %s, want %s", got, want)
	}
	if got != ChallengeResponse("ab", "", "c") {
		t.Error("digest must cover the plain concatenation")
	}
	if ChallengeResponse("c", "b", "a") == got {
		t.Error("argument order must matter")
	}
}

func TestParseNotificationJSON(t *testing.T) {
	body := []byte(`{
		"notificationId": "notif-7",
		"topic": "item_sold",
		"recipientUserId": "seller-1",
		"data": {
			"sku": "SKU-10",
			"itemId": "legacy-55",
			"orderId": "order-1",
			"lineItemId": "line-1",
			"quantity": 2,
			"price": {"value": "25.50", "currency": "USD"}
		}
	}`)

	n, err := ParseNotification("application/json", body)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if n.NotificationID != "notif-7" || n.Topic != TopicItemSold {
		t.Errorf("envelope = %+v", n)
	}
	if n.RecipientUserID != "seller-1" || n.SKU != "SKU-10" || n.RemoteItemID != "legacy-55" {
		t.Errorf("identity fields = %+v", n)
	}
	if n.OrderID != "order-1" || n.LineItemID != "line-1" || n.Quantity != 2 {
		t.Errorf("order fields = %+v", n)
	}
	if n.Price == nil || *n.Price != 25.50 {
		t.Errorf("price = %v", n.Price)
	}
}

func TestParseNotificationXML(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
	<Notification>
		<NotificationId>notif-8</NotificationId>
		<Topic>Item_Sold</Topic>
		<RecipientUserId>seller-1</RecipientUserId>
		<Item><SKU>SKU-10</SKU><ItemId>legacy-55</ItemId></Item>
		<Order><OrderId>order-1</OrderId><LineItemId>line-1</LineItemId><Quantity>1</Quantity><Price>25.50</Price></Order>
	</Notification>`)

	// No content type: the body prefix decides.
	n, err := ParseNotification("", body)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if n.NotificationID != "notif-8" || n.Topic != TopicItemSold {
		t.Errorf("envelope = %+v", n)
	}
	if n.SKU != "SKU-10" || n.RemoteItemID != "legacy-55" || n.OrderID != "order-1" {
		t.Errorf("fields = %+v", n)
	}
	if n.Price == nil || *n.Price != 25.50 {
		t.Errorf("price = %v", n.Price)
	}
}

func TestParseNotificationRejectsGarbage(t *testing.T) {
	if _, err := ParseNotification("application/json", []byte("   ")); err == nil {
		t.Error("empty body should fail")
	}
	if _, err := ParseNotification("application/json", []byte("not json")); err == nil {
		t.Error("malformed json should fail")
	}
	if _, err := ParseNotification("text/xml", []byte("<unclosed")); err == nil {
		t.Error("malformed xml should fail")
	}
}

func TestHandleNotificationFullSale(t *testing.T) {
	p := testProduct(10, "SKU-10", 1)
	models.MarkPublished(p, models.PlatformEbay, "legacy-55", time.Now())
	products := &fakeProducts{products: []*models.Product{p}}
	svc, audit, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 1)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if !p.Sold || p.Quantity != 0 {
		t.Errorf("sold=%v quantity=%d", p.Sold, p.Quantity)
	}
	if p.SoldPrice == nil || *p.SoldPrice != 25.50 {
		t.Errorf("sold price = %v", p.SoldPrice)
	}
	if !p.HasDedupeMarker("order-1", "line-1") {
		t.Error("dedupe marker not set")
	}
	if len(audit.alerts) != 1 || audit.alerts[0].Kind != models.AlertSuccess {
		t.Errorf("alerts = %+v", audit.alerts)
	}
}

func TestHandleNotificationPartialSaleSplitsRecord(t *testing.T) {
	p := testProduct(10, "SKU-10", 5)
	models.MarkPublished(p, models.PlatformEbay, "listing-1", time.Now())
	products := &fakeProducts{products: []*models.Product{p}}
	svc, _, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 2)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if p.Quantity != 3 || p.Sold {
		t.Errorf("quantity=%d sold=%v", p.Quantity, p.Sold)
	}
	if p.PlatformIDs[models.PlatformEbay] != "listing-1" {
		t.Error("original must keep the listing link")
	}

	if len(products.splits) != 1 {
		t.Fatalf("splits = %d, want 1", len(products.splits))
	}
	split := products.splits[0]
	if split.SKU != "SKU-10-line-1" || !split.Sold || split.Quantity != 2 {
		t.Errorf("split = %+v", split)
	}
	if !split.HasDedupeMarker("order-1", "line-1") {
		t.Error("split must carry the dedupe marker")
	}
}

func TestOrderSyncSkipsWebhookAppliedSale(t *testing.T) {
	p := testProduct(10, "SKU-10", 5)
	products := &fakeProducts{products: []*models.Product{p}}
	svc, _, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 2)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if p.Quantity != 3 {
		t.Fatalf("quantity after webhook = %d", p.Quantity)
	}

	// The poller fetching the same order inside its trailing window must
	// find the marker on the split and not subtract the units again.
	poller, _, _ := newOrderSyncFixture(products, []ebay.Order{
		saleOrder("order-1", "line-1", "SKU-10", 2, "51.00"),
	})
	stats, err := poller.SyncTenant(context.Background(), "req-2", 1)
	if err != nil {
		t.Fatalf("SyncTenant: %v", err)
	}
	if stats.Applied != 0 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if p.Quantity != 3 {
		t.Errorf("quantity = %d, sale applied twice", p.Quantity)
	}
	if len(products.splits) != 1 {
		t.Errorf("splits = %d, want 1", len(products.splits))
	}
}

func TestHandleNotificationSkipsPollerAppliedPartialSale(t *testing.T) {
	p := testProduct(10, "SKU-10", 3)
	sold := testProduct(1000, "SKU-10-line-1", 2)
	sold.Sold = true
	sold.SetDedupeMarker("order-1", "line-1")
	products := &fakeProducts{products: []*models.Product{p, sold}}
	svc, _, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 2)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if p.Quantity != 3 {
		t.Errorf("quantity = %d, redelivered sale applied again", p.Quantity)
	}
	if len(products.updated) != 0 || len(products.splits) != 0 {
		t.Errorf("updated=%d splits=%d", len(products.updated), len(products.splits))
	}
}

func TestHandleNotificationSkipsAlreadySold(t *testing.T) {
	p := testProduct(10, "SKU-10", 0)
	p.Sold = true
	products := &fakeProducts{products: []*models.Product{p}}
	svc, audit, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 1)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(products.updated) != 0 {
		t.Error("sold product must not be touched")
	}
	if len(audit.alerts) != 0 {
		t.Errorf("alerts = %+v", audit.alerts)
	}
}

func TestHandleNotificationSkipsPollerAppliedSale(t *testing.T) {
	p := testProduct(10, "SKU-10", 3)
	p.SetDedupeMarker("order-1", "line-1")
	products := &fakeProducts{products: []*models.Product{p}}
	svc, _, _ := newWebhookFixture(products)

	if err := svc.HandleNotification(context.Background(), "req-1", soldNotification("SKU-10", 1)); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(products.updated) != 0 {
		t.Error("already-applied sale must not move quantity again")
	}
}

func TestHandleNotificationDropsDuplicates(t *testing.T) {
	p := testProduct(10, "SKU-10", 5)
	products := &fakeProducts{products: []*models.Product{p}}
	svc, _, _ := newWebhookFixture(products)

	n := soldNotification("SKU-10", 1)
	if err := svc.HandleNotification(context.Background(), "req-1", n); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleNotification(context.Background(), "req-2", n); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if p.Quantity != 4 {
		t.Errorf("quantity = %d, redelivery must not apply twice", p.Quantity)
	}
}

func TestHandleNotificationUnknownRecipientIsAcked(t *testing.T) {
	svc, audit, _ := newWebhookFixture(&fakeProducts{})

	n := soldNotification("SKU-10", 1)
	n.RecipientUserID = "someone-else"
	if err := svc.HandleNotification(context.Background(), "req-1", n); err != nil {
		t.Errorf("unknown recipient must be acknowledged, got %v", err)
	}
	if len(audit.logs) != 0 {
		t.Errorf("logs = %+v", audit.logs)
	}
}

func TestHandleNotificationBidRaisesInfoAlert(t *testing.T) {
	p := testProduct(10, "SKU-10", 1)
	products := &fakeProducts{products: []*models.Product{p}}
	svc, audit, _ := newWebhookFixture(products)

	n := &Notification{
		NotificationID:  "notif-2",
		Topic:           TopicBestOffer,
		RecipientUserID: "seller-1",
		SKU:             "SKU-10",
		OfferStatus:     "ACTIVE",
	}
	if err := svc.HandleNotification(context.Background(), "req-1", n); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(audit.alerts) != 1 || audit.alerts[0].Kind != models.AlertInfo {
		t.Errorf("alerts = %+v", audit.alerts)
	}
	if len(products.updated) != 0 {
		t.Error("a bid must not move catalog state")
	}
}

func TestHandleNotificationExpiredBidIsIgnored(t *testing.T) {
	p := testProduct(10, "SKU-10", 1)
	products := &fakeProducts{products: []*models.Product{p}}
	svc, audit, _ := newWebhookFixture(products)

	n := &Notification{
		NotificationID:  "notif-3",
		Topic:           TopicBestOffer,
		RecipientUserID: "seller-1",
		SKU:             "SKU-10",
		OfferStatus:     "EXPIRED",
	}
	if err := svc.HandleNotification(context.Background(), "req-1", n); err != nil {
		t.Fatalf("HandleNotification: %v", err)
	}
	if len(audit.alerts) != 0 {
		t.Errorf("alerts = %+v", audit.alerts)
	}
}
