package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/pkg/ebay"
)

type orderProductStore interface {
	GetBySKU(tenantID int64, sku string) (*models.Product, error)
	GetByPlatformID(tenantID int64, marketplace, remoteID string) (*models.Product, error)
	Update(p *models.Product) error
	CreateSplit(p *models.Product) error
	HasDedupeMarker(tenantID int64, orderID, lineItemID string) (bool, error)
}

type connectedTenants interface {
	ConnectedTenantIDs() ([]int64, error)
}

// OrderSyncStats summarizes one polling pass for a tenant.
type OrderSyncStats struct {
	Orders  int `json:"orders"`
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// OrderSyncService pulls recent marketplace orders and applies their sales to
// the catalog. The poll window trails well past the poll interval, so every
// line item is seen several times; the (order id, line item id) marker makes
// applying a sale idempotent.
type OrderSyncService struct {
	products orderProductStore
	creds    connectedTenants
	tokens   *TokenManager
	market   marketClient
	audit    *AlertService
	window   time.Duration
}

// NewOrderSyncService creates a new OrderSyncService.
func NewOrderSyncService(products orderProductStore, creds connectedTenants, tokens *TokenManager, market marketClient, audit *AlertService, window time.Duration) *OrderSyncService {
	return &OrderSyncService{
		products: products,
		creds:    creds,
		tokens:   tokens,
		market:   market,
		audit:    audit,
		window:   window,
	}
}

// SyncAll runs one polling pass over every connected tenant. A failing tenant
// never blocks the others.
func (s *OrderSyncService) SyncAll(ctx context.Context) {
	ids, err := s.creds.ConnectedTenantIDs()
	if err != nil {
		log.Error().Err(err).Msg("failed to list connected tenants")
		return
	}
	for _, tenantID := range ids {
		requestID := uuid.New().String()[:8]
		stats, err := s.SyncTenant(ctx, requestID, tenantID)
		if err != nil {
			log.Error().Err(err).Int64("tenant_id", tenantID).Str("request_id", requestID).
				Msg("order sync failed")
			continue
		}
		log.Info().Int64("tenant_id", tenantID).Str("request_id", requestID).
			Int("orders", stats.Orders).Int("applied", stats.Applied).Int("skipped", stats.Skipped).
			Msg("order sync pass complete")
	}
}

// SyncTenant fetches the tenant's orders inside the trailing window and
// applies each line item once.
func (s *OrderSyncService) SyncTenant(ctx context.Context, requestID string, tenantID int64) (*OrderSyncStats, error) {
	since := time.Now().UTC().Add(-s.window)
	var orders []ebay.Order
	err := s.tokens.WithAuthRetry(ctx, tenantID, func(token string) error {
		var err error
		orders, err = s.market.GetOrders(ctx, token, since)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := &OrderSyncStats{Orders: len(orders)}
	for i := range orders {
		order := &orders[i]
		for j := range order.LineItems {
			li := &order.LineItems[j]
			applied, err := s.applyLineItem(requestID, tenantID, order, li)
			if err != nil {
				stats.Failed++
				detail := fmt.Sprintf("order %s line %s: %v", order.OrderID, li.LineItemID, err)
				s.audit.Log(tenantID, requestID, "error", "order_sync.apply", nil, detail)
				continue
			}
			if applied {
				stats.Applied++
			} else {
				stats.Skipped++
			}
		}
	}
	return stats, nil
}

// applyLineItem applies one sale to the catalog. Single-unit records flip to
// sold in place. Multi-unit records split: a new record captures the sold
// units and the dedupe marker, the original keeps the remainder.
func (s *OrderSyncService) applyLineItem(requestID string, tenantID int64, order *ebay.Order, li *ebay.LineItem) (bool, error) {
	seen, err := s.products.HasDedupeMarker(tenantID, order.OrderID, li.LineItemID)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}

	p, err := s.resolveProduct(tenantID, li)
	if err != nil {
		return false, err
	}
	if p == nil {
		detail := fmt.Sprintf("order %s line %s: no catalog match (sku=%q item=%q)",
			order.OrderID, li.LineItemID, li.SKU, li.LegacyItemID)
		s.audit.Log(tenantID, requestID, "warn", "order_sync.unmatched", nil, detail)
		return false, nil
	}

	units := li.Quantity
	if units <= 0 {
		units = 1
	}
	soldAt := order.CreationDate
	if soldAt.IsZero() {
		soldAt = time.Now().UTC()
	}
	unitPrice := lineItemUnitPrice(li)
	platform := models.PlatformEbay

	if p.Quantity <= 1 {
		p.Quantity = 0
		p.Sold = true
		p.SoldAt = &soldAt
		p.SoldPrice = unitPrice
		p.SoldPlatform = &platform
		p.SetDedupeMarker(order.OrderID, li.LineItemID)
		if err := s.products.Update(p); err != nil {
			return false, err
		}
		s.audit.Alert(tenantID, models.AlertSuccess, fmt.Sprintf("%q sold on eBay", p.Title), &p.SKU)
		return true, nil
	}

	if units > p.Quantity {
		detail := fmt.Sprintf("order %s line %s: sold %d but only %d on hand, clamping",
			order.OrderID, li.LineItemID, units, p.Quantity)
		s.audit.Log(tenantID, requestID, "warn", "order_sync.oversell", &p.SKU, detail)
		units = p.Quantity
	}

	split := saleSplit(p, units, li.LineItemID)
	split.SoldAt = &soldAt
	split.SoldPrice = unitPrice
	split.SoldPlatform = &platform
	split.SetDedupeMarker(order.OrderID, li.LineItemID)
	if err := s.products.CreateSplit(split); err != nil {
		return false, err
	}

	p.Quantity -= units
	if p.Quantity == 0 {
		p.Sold = true
		p.SoldAt = &soldAt
		p.SoldPrice = unitPrice
		p.SoldPlatform = &platform
	}
	if err := s.products.Update(p); err != nil {
		return false, err
	}
	s.audit.Alert(tenantID, models.AlertSuccess,
		fmt.Sprintf("%d of %q sold on eBay", units, p.Title), &p.SKU)
	return true, nil
}

// resolveProduct matches a line item to the catalog: SKU first, then the
// remote listing id for line items the marketplace reports without a SKU.
func (s *OrderSyncService) resolveProduct(tenantID int64, li *ebay.LineItem) (*models.Product, error) {
	if li.SKU != "" {
		p, err := s.products.GetBySKU(tenantID, li.SKU)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	if li.LegacyItemID != "" {
		p, err := s.products.GetByPlatformID(tenantID, models.PlatformEbay, li.LegacyItemID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, nil
}

// saleSplit copies a multi-unit record into a sold split. The split gets a
// suffixed SKU for the uniqueness constraint and no marketplace linkage; the
// live listing stays attached to the original. Both the order poller and the
// webhook path record partial sales through this shape.
func saleSplit(p *models.Product, units int, lineItemID string) *models.Product {
	return &models.Product{
		TenantID:     p.TenantID,
		SKU:          fmt.Sprintf("%s-%s", p.SKU, lineItemID),
		Title:        p.Title,
		Description:  p.Description,
		CategoryCode: p.CategoryCode,
		Condition:    p.Condition,
		Quantity:     units,
		Price:        p.Price,
		Currency:     p.Currency,
		Format:       p.Format,
		StartPrice:   p.StartPrice,
		ReservePrice: p.ReservePrice,
		BuyItNow:     p.BuyItNow,
		Attributes:   p.Attributes,
		Photos:       p.Photos,
		Sold:         true,
	}
}

// lineItemUnitPrice derives the per-unit sale price from the line total.
func lineItemUnitPrice(li *ebay.LineItem) *float64 {
	if li.LineItemCost == nil || li.LineItemCost.Value == "" {
		return nil
	}
	total, err := strconv.ParseFloat(li.LineItemCost.Value, 64)
	if err != nil {
		return nil
	}
	qty := li.Quantity
	if qty <= 0 {
		qty = 1
	}
	unit := total / float64(qty)
	return &unit
}
