package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/pkg/ebay"
)

type reconcileProductStore interface {
	GetListed(tenantID int64, marketplace string) ([]models.Product, error)
	Update(p *models.Product) error
}

// ReconcileService pushes local sale state back out to the marketplace: fully
// sold listings are withdrawn, partially sold multi-unit listings get their
// remote quantity corrected. Items are processed independently; one failure
// never stops the sweep.
type ReconcileService struct {
	products reconcileProductStore
	tokens   *TokenManager
	market   marketClient
	audit    *AlertService
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(products reconcileProductStore, tokens *TokenManager, market marketClient, audit *AlertService) *ReconcileService {
	return &ReconcileService{products: products, tokens: tokens, market: market, audit: audit}
}

// Reconcile sweeps every listed product of a tenant once.
func (s *ReconcileService) Reconcile(ctx context.Context, requestID string, tenantID int64) (*BatchResult, error) {
	listed, err := s.products.GetListed(tenantID, models.PlatformEbay)
	if err != nil {
		return nil, fmt.Errorf("failed to load listed products: %w", err)
	}

	result := &BatchResult{}
	for i := range listed {
		p := &listed[i]
		var itemErr error
		if p.Quantity <= 0 {
			itemErr = s.withdrawOne(ctx, tenantID, p)
		} else {
			itemErr = s.pushQuantity(ctx, tenantID, p)
		}
		if itemErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.SKU, itemErr))
			s.audit.Log(tenantID, requestID, "error", "reconcile.item", &p.SKU, itemErr.Error())
			continue
		}
		result.Success++
	}

	log.Info().Int64("tenant_id", tenantID).Str("request_id", requestID).
		Int("success", result.Success).Int("failed", result.Failed).Msg("reconcile sweep complete")
	return result, nil
}

// withdrawOne ends the remote listing of a sold-out product. A remote side
// that already ended it (404 on withdraw or delete) counts as done.
func (s *ReconcileService) withdrawOne(ctx context.Context, tenantID int64, p *models.Product) error {
	err := s.tokens.WithAuthRetry(ctx, tenantID, func(token string) error {
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

// pushQuantity corrects the remote available quantity of a partially sold
// listing. A listing that disappeared remotely gets its local link cleared
// instead.
func (s *ReconcileService) pushQuantity(ctx context.Context, tenantID int64, p *models.Product) error {
	gone := false
	err := s.tokens.WithAuthRetry(ctx, tenantID, func(token string) error {
		offers, err := s.market.GetOffersBySKU(ctx, token, p.SKU)
		if err != nil {
			return fmt.Errorf("offer lookup: %w", err)
		}
		if len(offers.Offers) == 0 {
			gone = true
			return nil
		}
		return s.market.UpdateOfferQuantity(ctx, token, p.SKU, offers.Offers[0].OfferID, p.Quantity)
	})
	if err != nil {
		return err
	}

	if gone {
		log.Warn().Str("sku", p.SKU).Int64("tenant_id", tenantID).
			Msg("listing ended remotely, clearing local link")
		if err := models.MarkWithdrawn(p, models.PlatformEbay); err != nil {
			return err
		}
		return s.products.Update(p)
	}
	return nil
}
