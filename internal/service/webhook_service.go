package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
)

// Notification topics the engine acts on. Anything else is acknowledged and
// dropped.
const (
	TopicItemSold  = "ITEM_SOLD"
	TopicBestOffer = "BEST_OFFER_PLACED"
)

// Notification is the decoded webhook envelope. Both wire shapes (JSON and
// the legacy XML envelope) collapse into this.
type Notification struct {
	NotificationID  string
	Topic           string
	RecipientUserID string
	SKU             string
	RemoteItemID    string
	OrderID         string
	LineItemID      string
	Quantity        int
	Price           *float64
	OfferStatus     string
}

type jsonNotification struct {
	NotificationID  string `json:"notificationId"`
	Topic           string `json:"topic"`
	RecipientUserID string `json:"recipientUserId"`
	Data            struct {
		SKU         string `json:"sku"`
		ItemID      string `json:"itemId"`
		OrderID     string `json:"orderId"`
		LineItemID  string `json:"lineItemId"`
		Quantity    int    `json:"quantity"`
		OfferStatus string `json:"offerStatus"`
		Price       struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

type xmlNotification struct {
	XMLName         xml.Name `xml:"Notification"`
	NotificationID  string   `xml:"NotificationId"`
	Topic           string   `xml:"Topic"`
	RecipientUserID string   `xml:"RecipientUserId"`
	SKU             string   `xml:"Item>SKU"`
	ItemID          string   `xml:"Item>ItemId"`
	OrderID         string   `xml:"Order>OrderId"`
	LineItemID      string   `xml:"Order>LineItemId"`
	Quantity        int      `xml:"Order>Quantity"`
	Price           string   `xml:"Order>Price"`
	OfferStatus     string   `xml:"Offer>Status"`
}

// ChallengeResponse computes the endpoint verification digest: the hex SHA-256
// over challenge code, verification token, and the registered endpoint URL,
// in that order.
func ChallengeResponse(challengeCode, verificationToken, endpoint string) string {
	h := sha256.New()
	h.Write([]byte(challengeCode))
	h.Write([]byte(verificationToken))
	h.Write([]byte(endpoint))
	return hex.EncodeToString(h.Sum(nil))
}

// ParseNotification decodes a webhook body. JSON is the current wire format;
// the XML envelope from the older notification platform is still accepted.
func ParseNotification(contentType string, body []byte) (*Notification, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty notification body")
	}

	if strings.Contains(contentType, "xml") || bytes.HasPrefix(body, []byte("<")) {
		var wire xmlNotification
		if err := xml.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode xml notification: %w", err)
		}
		n := &Notification{
			NotificationID:  wire.NotificationID,
			Topic:           strings.ToUpper(wire.Topic),
			RecipientUserID: wire.RecipientUserID,
			SKU:             wire.SKU,
			RemoteItemID:    wire.ItemID,
			OrderID:         wire.OrderID,
			LineItemID:      wire.LineItemID,
			Quantity:        wire.Quantity,
			OfferStatus:     wire.OfferStatus,
		}
		if wire.Price != "" {
			if v, err := strconv.ParseFloat(wire.Price, 64); err == nil {
				n.Price = &v
			}
		}
		return n, nil
	}

	var wire jsonNotification
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode json notification: %w", err)
	}
	n := &Notification{
		NotificationID:  wire.NotificationID,
		Topic:           strings.ToUpper(wire.Topic),
		RecipientUserID: wire.RecipientUserID,
		SKU:             wire.Data.SKU,
		RemoteItemID:    wire.Data.ItemID,
		OrderID:         wire.Data.OrderID,
		LineItemID:      wire.Data.LineItemID,
		Quantity:        wire.Data.Quantity,
		OfferStatus:     wire.Data.OfferStatus,
	}
	if wire.Data.Price.Value != "" {
		if v, err := strconv.ParseFloat(wire.Data.Price.Value, 64); err == nil {
			n.Price = &v
		}
	}
	return n, nil
}

type webhookTenantStore interface {
	GetByMarketplaceUserID(userID string) (*models.Tenant, error)
}

type webhookProductStore interface {
	GetBySKU(tenantID int64, sku string) (*models.Product, error)
	GetByPlatformID(tenantID int64, marketplace, remoteID string) (*models.Product, error)
	Update(p *models.Product) error
	CreateSplit(p *models.Product) error
	HasDedupeMarker(tenantID int64, orderID, lineItemID string) (bool, error)
}

type notificationDeduper interface {
	MarkSeen(ctx context.Context, tenantID int64, notificationID string) bool
}

// WebhookService applies push notifications from the marketplace. It is the
// low-latency half of inbound sync; the order poller remains the source of
// truth and catches anything dropped here, so every failure path here
// acknowledges and moves on rather than forcing redelivery.
type WebhookService struct {
	tenants  webhookTenantStore
	products webhookProductStore
	seen     notificationDeduper
	audit    *AlertService
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(tenants webhookTenantStore, products webhookProductStore, seen notificationDeduper, audit *AlertService) *WebhookService {
	return &WebhookService{tenants: tenants, products: products, seen: seen, audit: audit}
}

// HandleNotification routes one decoded notification. A nil return means the
// delivery should be acknowledged; only infrastructure failures propagate.
func (s *WebhookService) HandleNotification(ctx context.Context, requestID string, n *Notification) error {
	tenant, err := s.tenants.GetByMarketplaceUserID(n.RecipientUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("request_id", requestID).Str("recipient", n.RecipientUserID).
				Msg("notification for unknown recipient, dropping")
			return nil
		}
		return err
	}

	if s.seen.MarkSeen(ctx, tenant.ID, n.NotificationID) {
		log.Debug().Str("request_id", requestID).Str("notification_id", n.NotificationID).
			Msg("duplicate notification, dropping")
		return nil
	}

	switch n.Topic {
	case TopicItemSold:
		return s.handleSold(requestID, tenant, n)
	case TopicBestOffer:
		return s.handleBid(requestID, tenant, n)
	default:
		log.Debug().Str("request_id", requestID).Str("topic", n.Topic).
			Msg("unhandled notification topic")
		return nil
	}
}

// handleSold applies a sale notification with the same bookkeeping as the
// order poller: the (order id, line item id) marker is checked across the
// whole tenant before anything moves and is written by whichever path applies
// the sale first, so webhook and poller never subtract the same units twice.
func (s *WebhookService) handleSold(requestID string, tenant *models.Tenant, n *Notification) error {
	p, err := s.resolve(tenant.ID, n)
	if err != nil {
		return err
	}
	if p == nil {
		detail := fmt.Sprintf("sale notification with no catalog match (sku=%q item=%q)", n.SKU, n.RemoteItemID)
		s.audit.Log(tenant.ID, requestID, "warn", "webhook.unmatched", nil, detail)
		return nil
	}
	if p.Sold {
		s.audit.Log(tenant.ID, requestID, "info", "webhook.sale", &p.SKU, "already sold, skipping")
		return nil
	}

	hasIdentity := n.OrderID != "" && n.LineItemID != ""
	if hasIdentity {
		seen, err := s.products.HasDedupeMarker(tenant.ID, n.OrderID, n.LineItemID)
		if err != nil {
			return err
		}
		if seen {
			s.audit.Log(tenant.ID, requestID, "info", "webhook.sale", &p.SKU, "sale already applied, skipping")
			return nil
		}
	}

	units := n.Quantity
	if units <= 0 {
		units = 1
	}
	now := time.Now().UTC()
	platform := models.PlatformEbay

	if units >= p.Quantity {
		p.Quantity = 0
		p.Sold = true
		p.SoldAt = &now
		p.SoldPrice = n.Price
		p.SoldPlatform = &platform
		if hasIdentity {
			p.SetDedupeMarker(n.OrderID, n.LineItemID)
		}
		if err := s.products.Update(p); err != nil {
			return err
		}
	} else {
		if !hasIdentity {
			// Without an order identity a partial sale cannot be recorded
			// idempotently against the poller. Leave it for the poller.
			s.audit.Log(tenant.ID, requestID, "info", "webhook.sale", &p.SKU,
				"partial sale without order identity, deferring to order sync")
			return nil
		}
		split := saleSplit(p, units, n.LineItemID)
		split.SoldAt = &now
		split.SoldPrice = n.Price
		split.SoldPlatform = &platform
		split.SetDedupeMarker(n.OrderID, n.LineItemID)
		if err := s.products.CreateSplit(split); err != nil {
			return err
		}
		p.Quantity -= units
		if err := s.products.Update(p); err != nil {
			return err
		}
	}

	s.audit.Log(tenant.ID, requestID, "info", "webhook.sale", &p.SKU,
		fmt.Sprintf("applied sale of %d unit(s)", units))
	s.audit.Alert(tenant.ID, models.AlertSuccess, fmt.Sprintf("%q sold on eBay", p.Title), &p.SKU)
	return nil
}

// handleBid surfaces bid and best-offer activity as an informational alert.
// No catalog state moves until the sale actually happens.
func (s *WebhookService) handleBid(requestID string, tenant *models.Tenant, n *Notification) error {
	p, err := s.resolve(tenant.ID, n)
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	if n.OfferStatus != "" && !strings.EqualFold(n.OfferStatus, "ACTIVE") {
		s.audit.Log(tenant.ID, requestID, "info", "webhook.bid", &p.SKU,
			fmt.Sprintf("ignoring bid with status %s", n.OfferStatus))
		return nil
	}
	s.audit.Alert(tenant.ID, models.AlertInfo, fmt.Sprintf("New bid on %q", p.Title), &p.SKU)
	return nil
}

func (s *WebhookService) resolve(tenantID int64, n *Notification) (*models.Product, error) {
	if n.SKU != "" {
		p, err := s.products.GetBySKU(tenantID, n.SKU)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	if n.RemoteItemID != "" {
		p, err := s.products.GetByPlatformID(tenantID, models.PlatformEbay, n.RemoteItemID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, nil
}
