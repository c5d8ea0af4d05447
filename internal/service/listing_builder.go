package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shelfline/marketsync/internal/models"
	"github.com/shelfline/marketsync/internal/utils"
	"github.com/shelfline/marketsync/pkg/ebay"
)

// maxListingImages is the marketplace gallery limit. Extra photos are dropped
// from the end.
const maxListingImages = 24

// CategorySchema describes how one catalog category maps onto the
// marketplace: which marketplace category the listings go into, which
// condition values the category accepts, and how internal attribute keys
// translate to marketplace aspect names. Lookups fall back to defaultSchema.
type CategorySchema struct {
	CategoryID        string
	AllowedConditions []ebay.Condition
	FallbackCondition ebay.Condition
	AspectNames       map[string]string
}

var defaultSchema = CategorySchema{
	FallbackCondition: ebay.ConditionUsedGood,
	AspectNames: map[string]string{
		"brand": "Brand",
		"model": "Model",
		"color": "Color",
	},
}

var categorySchemas = map[string]CategorySchema{
	"sneakers": {
		CategoryID: "15709",
		AllowedConditions: []ebay.Condition{
			ebay.ConditionNew,
			ebay.ConditionNewOther,
			ebay.ConditionNewWithDefects,
			ebay.ConditionUsedExcellent,
			ebay.ConditionUsedGood,
			ebay.ConditionUsedAcceptable,
		},
		FallbackCondition: ebay.ConditionUsedExcellent,
		AspectNames: map[string]string{
			"brand":    "Brand",
			"size":     "US Shoe Size",
			"color":    "Color",
			"material": "Upper Material",
			"style":    "Style",
		},
	},
	"trading_cards": {
		CategoryID: "261328",
		AllowedConditions: []ebay.Condition{
			ebay.ConditionNew,
			ebay.ConditionLikeNew,
			ebay.ConditionUsedExcellent,
			ebay.ConditionUsedVeryGood,
			ebay.ConditionUsedGood,
			ebay.ConditionUsedAcceptable,
		},
		FallbackCondition: ebay.ConditionLikeNew,
		AspectNames: map[string]string{
			"game":   "Game",
			"set":    "Set",
			"rarity": "Rarity",
			"grade":  "Grade",
			"year":   "Year Manufactured",
		},
	},
	"electronics": {
		CategoryID: "293",
		AllowedConditions: []ebay.Condition{
			ebay.ConditionNew,
			ebay.ConditionNewOther,
			ebay.ConditionCertifiedRefurb,
			ebay.ConditionSellerRefurb,
			ebay.ConditionUsedExcellent,
			ebay.ConditionUsedVeryGood,
			ebay.ConditionUsedGood,
			ebay.ConditionUsedAcceptable,
			ebay.ConditionForPartsNotWorking,
		},
		FallbackCondition: ebay.ConditionUsedGood,
		AspectNames: map[string]string{
			"brand":   "Brand",
			"model":   "Model",
			"storage": "Storage Capacity",
			"color":   "Color",
		},
	},
	"apparel": {
		CategoryID: "11450",
		AllowedConditions: []ebay.Condition{
			ebay.ConditionNew,
			ebay.ConditionNewOther,
			ebay.ConditionNewWithDefects,
			ebay.ConditionUsedExcellent,
			ebay.ConditionUsedVeryGood,
			ebay.ConditionUsedGood,
			ebay.ConditionUsedAcceptable,
		},
		FallbackCondition: ebay.ConditionUsedVeryGood,
		AspectNames: map[string]string{
			"brand":    "Brand",
			"size":     "Size",
			"color":    "Color",
			"material": "Material",
			"fit":      "Fit",
		},
	},
}

// conditionTable maps the catalog's free-form condition vocabulary to the
// marketplace enum. Unknown values land on USED_GOOD.
var conditionTable = map[string]ebay.Condition{
	"new":                   ebay.ConditionNew,
	"new with tags":         ebay.ConditionNew,
	"nwt":                   ebay.ConditionNew,
	"new other":             ebay.ConditionNewOther,
	"new without tags":      ebay.ConditionNewOther,
	"nwot":                  ebay.ConditionNewOther,
	"new with defects":      ebay.ConditionNewWithDefects,
	"like new":              ebay.ConditionLikeNew,
	"mint":                  ebay.ConditionLikeNew,
	"excellent":             ebay.ConditionUsedExcellent,
	"very good":             ebay.ConditionUsedVeryGood,
	"good":                  ebay.ConditionUsedGood,
	"used":                  ebay.ConditionUsedGood,
	"fair":                  ebay.ConditionUsedAcceptable,
	"acceptable":            ebay.ConditionUsedAcceptable,
	"poor":                  ebay.ConditionForPartsNotWorking,
	"for parts":             ebay.ConditionForPartsNotWorking,
	"broken":                ebay.ConditionForPartsNotWorking,
	"refurbished":           ebay.ConditionSellerRefurb,
	"certified refurbished": ebay.ConditionCertifiedRefurb,
}

// SchemaFor returns the schema of a category code, or the default schema.
func SchemaFor(categoryCode string) CategorySchema {
	if s, ok := categorySchemas[categoryCode]; ok {
		return s
	}
	return defaultSchema
}

// NormalizeCondition maps a catalog condition onto the marketplace enum and
// clamps the result to the conditions the category accepts.
func NormalizeCondition(raw string, schema CategorySchema) ebay.Condition {
	cond, ok := conditionTable[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		cond = ebay.ConditionUsedGood
	}
	if len(schema.AllowedConditions) == 0 {
		return cond
	}
	for _, allowed := range schema.AllowedConditions {
		if allowed == cond {
			return cond
		}
	}
	return schema.FallbackCondition
}

// BuildInput carries everything BuildListing needs. PaymentPolicies is the
// tenant's configured policy set, fetched once per batch.
type BuildInput struct {
	Product         *models.Product
	Tenant          *models.Tenant
	PaymentPolicies []ebay.PaymentPolicy
}

// BuildListing derives the inventory item and offer payloads for a product.
// It is pure: every remote lookup happens before the call, so the builder is
// fully table-driven and deterministic.
func BuildListing(in BuildInput) (*ebay.InventoryItem, *ebay.Offer, error) {
	p, tenant := in.Product, in.Tenant
	schema := SchemaFor(p.CategoryCode)
	description := buildDescription(p.Description, tenant.DescriptionFooter)

	item := &ebay.InventoryItem{
		SKU:       p.SKU,
		Locale:    "en_US",
		Condition: NormalizeCondition(p.Condition, schema),
		Product: &ebay.ProductData{
			Title:       p.Title,
			Description: description,
			Aspects:     buildAspects(p.Attributes, schema),
			ImageURLs:   capImages(p.Photos),
		},
		Availability: &ebay.Availability{
			ShipToLocationAvailability: &ebay.ShipToLocation{Quantity: p.Quantity},
		},
	}

	pricing, err := buildPricing(p)
	if err != nil {
		return nil, nil, err
	}
	policies, err := selectPolicies(p, tenant, in.PaymentPolicies)
	if err != nil {
		return nil, nil, err
	}

	categoryID := schema.CategoryID
	if categoryID == "" {
		categoryID = p.CategoryCode
	}
	offer := &ebay.Offer{
		SKU:                 p.SKU,
		MarketplaceID:       tenant.MarketplaceID,
		Format:              offerFormat(p.Format),
		AvailableQuantity:   p.Quantity,
		CategoryID:          categoryID,
		ListingDescription:  description,
		MerchantLocationKey: tenant.MerchantLocationKey,
		PricingSummary:      pricing,
		ListingPolicies:     policies,
	}
	return item, offer, nil
}

// buildDescription appends the tenant footer exactly once. A description that
// already contains the footer (a previous publish round-tripped it) is left
// untouched.
func buildDescription(description, footer string) string {
	if footer == "" || strings.Contains(description, footer) {
		return description
	}
	if description == "" {
		return footer
	}
	return description + "\n\n" + footer
}

func buildAspects(attrs models.AttributeMap, schema CategorySchema) map[string][]string {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string][]string, len(attrs))
	for key, value := range attrs {
		if value == "" {
			continue
		}
		name := schema.AspectNames[strings.ToLower(key)]
		if name == "" {
			// Unmapped keys pass through under their catalog name.
			name = key
		}
		out[name] = []string{value}
	}
	return out
}

func capImages(photos []string) []string {
	if len(photos) <= maxListingImages {
		return photos
	}
	return photos[:maxListingImages]
}

func buildPricing(p *models.Product) (*ebay.PricingSummary, error) {
	amount := func(v float64) *ebay.Amount {
		return &ebay.Amount{Value: strconv.FormatFloat(v, 'f', 2, 64), Currency: p.Currency}
	}
	if p.Format != models.FormatAuction {
		return &ebay.PricingSummary{Price: amount(p.Price)}, nil
	}
	if p.StartPrice == nil {
		return nil, fmt.Errorf("auction product %s has no starting bid", p.SKU)
	}
	pricing := &ebay.PricingSummary{AuctionStartPrice: amount(*p.StartPrice)}
	if p.ReservePrice != nil {
		pricing.AuctionReservePrice = amount(*p.ReservePrice)
	}
	if p.BuyItNow != nil {
		pricing.BuyItNowPrice = amount(*p.BuyItNow)
	}
	return pricing, nil
}

// selectPolicies resolves the policy references of an offer. Auctions without
// a buy-it-now price need a payment policy that does not demand immediate
// payment: the winning bidder pays after the auction closes.
func selectPolicies(p *models.Product, tenant *models.Tenant, paymentPolicies []ebay.PaymentPolicy) (*ebay.ListingPolicies, error) {
	if tenant.FulfillmentPolicyID == "" {
		return nil, utils.NewConfigurationError("fulfillment policy")
	}
	if tenant.ReturnPolicyID == "" {
		return nil, utils.NewConfigurationError("return policy")
	}

	paymentID := tenant.PaymentPolicyID
	if p.Format == models.FormatAuction && p.BuyItNow == nil {
		paymentID = pickDeferredPayment(tenant.PaymentPolicyID, paymentPolicies)
		if paymentID == "" {
			return nil, utils.NewConfigurationError("non-immediate payment policy for auction")
		}
	} else if paymentID == "" && len(paymentPolicies) > 0 {
		paymentID = paymentPolicies[0].PaymentPolicyID
	}
	if paymentID == "" {
		return nil, utils.NewConfigurationError("payment policy")
	}

	return &ebay.ListingPolicies{
		FulfillmentPolicyID: tenant.FulfillmentPolicyID,
		PaymentPolicyID:     paymentID,
		ReturnPolicyID:      tenant.ReturnPolicyID,
	}, nil
}

// pickDeferredPayment prefers the tenant's configured policy when it allows
// deferred payment, otherwise the first policy that does.
func pickDeferredPayment(preferred string, policies []ebay.PaymentPolicy) string {
	for _, pp := range policies {
		if pp.PaymentPolicyID == preferred && !pp.ImmediatePay {
			return preferred
		}
	}
	for _, pp := range policies {
		if !pp.ImmediatePay {
			return pp.PaymentPolicyID
		}
	}
	return ""
}

func offerFormat(f models.ListingFormat) ebay.OfferFormat {
	if f == models.FormatAuction {
		return ebay.FormatAuction
	}
	return ebay.FormatFixedPrice
}
