package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// Batch actions accepted by RunBatch.
const (
	ActionPublish = "publish"
	ActionUpdate  = "update"
	ActionEnd     = "end"
)

type publishProductStore interface {
	GetByIDs(tenantID int64, ids []int64) ([]models.Product, error)
	Update(p *models.Product) error
}

type tenantStore interface {
	GetByID(id int64) (*models.Tenant, error)
}

// BatchResult summarizes one batch invocation. Errors holds one line per
// failed item.
type BatchResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// PublishService coordinates pushing catalog products to the marketplace.
// Local listing state changes only after the remote publish succeeds, so a
// mid-protocol failure leaves at most orphaned remote drafts, never a local
// link to a listing that does not exist.
type PublishService struct {
	products    publishProductStore
	tenants     tenantStore
	tokens      *TokenManager
	market      marketClient
	audit       *AlertService
	concurrency int
}

// NewPublishService creates a new PublishService.
func NewPublishService(products publishProductStore, tenants tenantStore, tokens *TokenManager, market marketClient, audit *AlertService, concurrency int) *PublishService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PublishService{
		products:    products,
		tenants:     tenants,
		tokens:      tokens,
		market:      market,
		audit:       audit,
		concurrency: concurrency,
	}
}

// RunBatch runs one action over a set of product ids. Tenant-wide problems
// (missing credentials, missing policies, no inventory location) abort the
// whole batch before any item is touched; per-item failures are collected
// and the rest of the batch proceeds.
func (s *PublishService) RunBatch(ctx context.Context, requestID string, tenantID int64, ids []int64, action string) (*BatchResult, error) {
	switch action {
	case ActionPublish, ActionUpdate, ActionEnd:
	default:
		return nil, fmt.Errorf("unknown batch action %q", action)
	}

	tenant, err := s.tenants.GetByID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	var paymentPolicies []ebay.PaymentPolicy
	if action != ActionEnd {
		if tenant.FulfillmentPolicyID == "" {
			return nil, utils.NewConfigurationError("fulfillment policy")
		}
		if tenant.ReturnPolicyID == "" {
			return nil, utils.NewConfigurationError("return policy")
		}
		err := s.tokens.WithAuthRetry(ctx, tenantID, func(token string) error {
			resp, err := s.market.GetPaymentPolicies(ctx, token, tenant.MarketplaceID)
			if err != nil {
				return fmt.Errorf("failed to load payment policies: %w", err)
			}
			paymentPolicies = resp.PaymentPolicies
			return s.ensureLocation(ctx, token, tenant)
		})
		if err != nil {
			return nil, err
		}
	}

	products, err := s.products.GetByIDs(tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	result := &BatchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			mu.Lock()
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("product %d: %v", id, utils.ErrProductNotFound))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(p *models.Product) {
			defer wg.Done()
			defer func() { <-sem }()

			var itemErr error
			if action == ActionEnd {
				itemErr = s.endOne(ctx, tenant, p)
			} else {
				itemErr = s.publishOne(ctx, tenant, p, paymentPolicies)
			}

			mu.Lock()
			defer mu.Unlock()
			if itemErr != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.SKU, itemErr))
				s.audit.Log(tenantID, requestID, "error", "listing."+action, &p.SKU, itemErr.Error())
				s.audit.Alert(tenantID, models.AlertError, fmt.Sprintf("Failed to %s %q: %v", action, p.Title, itemErr), &p.SKU)
			} else {
				result.Success++
				s.audit.Log(tenantID, requestID, "info", "listing."+action, &p.SKU, "ok")
			}
		}(p)
	}
	wg.Wait()

	return result, nil
}

// publishOne pushes one product through the publish protocol: inventory item
// upsert, offer lookup, offer create or update, publish, then the local state
// commit. The whole remote sequence sits inside one auth-retry scope; every
// step in it is idempotent, so a refreshed rerun converges on the same offer.
func (s *PublishService) publishOne(ctx context.Context, tenant *models.Tenant, p *models.Product, paymentPolicies []ebay.PaymentPolicy) error {
	if p.Sold || p.Quantity <= 0 {
		return fmt.Errorf("no stock to list")
	}

	item, offer, err := BuildListing(BuildInput{Product: p, Tenant: tenant, PaymentPolicies: paymentPolicies})
	if err != nil {
		return err
	}

	var listingID string
	err = s.tokens.WithAuthRetry(ctx, tenant.ID, func(token string) error {
		if err := s.market.UpsertInventoryItem(ctx, token, p.SKU, item); err != nil {
			return fmt.Errorf("inventory upsert: %w", err)
		}

		offers, err := s.market.GetOffersBySKU(ctx, token, p.SKU)
		if err != nil {
			return fmt.Errorf("offer lookup: %w", err)
		}
		offerID := ""
		for i := range offers.Offers {
			existing := &offers.Offers[i]
			if existing.MarketplaceID != tenant.MarketplaceID {
				continue
			}
			if existing.Format != offer.Format {
				// A stale offer in the other format stays untouched; the
				// marketplace keeps one offer per (SKU, marketplace, format).
				log.Warn().Str("sku", p.SKU).Str("offer_id", existing.OfferID).
					Str("format", string(existing.Format)).Msg("skipping offer in different format")
				continue
			}
			offerID = existing.OfferID
			break
		}

		if offerID == "" {
			if offerID, err = s.market.CreateOffer(ctx, token, offer); err != nil {
				return fmt.Errorf("offer create: %w", err)
			}
		} else if err := s.market.UpdateOffer(ctx, token, offerID, offer); err != nil {
			return fmt.Errorf("offer update: %w", err)
		}

		if listingID, err = s.market.PublishOffer(ctx, token, offerID); err != nil {
			return fmt.Errorf("offer publish: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	models.MarkPublished(p, models.PlatformEbay, listingID, time.Now().UTC())
	if err := s.products.Update(p); err != nil {
		// The listing is live but the local link is not. The next publish of
		// this SKU converges on the same offer, so surface it loudly and move on.
		log.Error().Err(err).Str("sku", p.SKU).Str("listing_id", listingID).
			Msg("listing published but local state commit failed")
		return fmt.Errorf("published as listing %s but failed to save local state: %w", listingID, err)
	}
	return nil
}

// endOne withdraws the live listing of a product and removes its inventory
// item. A remote side that already ended the listing counts as success.
func (s *PublishService) endOne(ctx context.Context, tenant *models.Tenant, p *models.Product) error {
	if models.ListingStateOf(p, models.PlatformEbay) != models.ListingPublished {
		return fmt.Errorf("not listed")
	}

	err := s.tokens.WithAuthRetry(ctx, tenant.ID, func(token string) error {
		offers, err := s.market.GetOffersBySKU(ctx, token, p.SKU)
		if err != nil {
			return fmt.Errorf("offer lookup: %w", err)
		}
		for i := range offers.Offers {
			if err := s.market.WithdrawOffer(ctx, token, offers.Offers[i].OfferID); err != nil && !ebay.IsNotFound(err) {
				return fmt.Errorf("offer withdraw: %w", err)
			}
		}
		if err := s.market.DeleteInventoryItem(ctx, token, p.SKU); err != nil && !ebay.IsNotFound(err) {
			return fmt.Errorf("inventory delete: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := models.MarkWithdrawn(p, models.PlatformEbay); err != nil {
		return err
	}
	return s.products.Update(p)
}

// ensureLocation verifies the tenant's merchant location exists remotely,
// registering it from the tenant's address settings on first use.
func (s *PublishService) ensureLocation(ctx context.Context, token string, tenant *models.Tenant) error {
	if tenant.MerchantLocationKey == "" {
		return utils.NewConfigurationError("merchant location key")
	}
	resp, err := s.market.GetInventoryLocations(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list inventory locations: %w", err)
	}
	for _, loc := range resp.Locations {
		if loc.MerchantLocationKey == tenant.MerchantLocationKey {
			return nil
		}
	}
	if tenant.LocationPostalCode == "" || tenant.LocationCountry == "" {
		return utils.NewConfigurationError("inventory location address")
	}

	log.Info().Int64("tenant_id", tenant.ID).Str("location_key", tenant.MerchantLocationKey).
		Msg("registering inventory location")
	loc := &ebay.InventoryLocation{
		Name:                   tenant.Name,
		MerchantLocationStatus: "ENABLED",
		Location: &ebay.LocationDetail{
			Address: &ebay.Address{
				PostalCode: tenant.LocationPostalCode,
				Country:    tenant.LocationCountry,
			},
		},
	}
	return s.market.CreateInventoryLocation(ctx, token, tenant.MerchantLocationKey, loc)
}
