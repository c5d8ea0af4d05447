package models

import (
	"fmt"
	"time"
)

// ListingState is the explicit per-marketplace lifecycle state of a product.
// Valid transitions: Unlisted -> Published, Published -> Published (update),
// Published -> Withdrawn.
type ListingState string

const (
	ListingUnlisted  ListingState = "unlisted"
	ListingPublished ListingState = "published"
	ListingWithdrawn ListingState = "withdrawn"
)

// ListingStateOf derives the current state of a product on a marketplace.
// A record with a platform id is Published; a sold record without one has
// been withdrawn; anything else has never been listed.
func ListingStateOf(p *Product, marketplace string) ListingState {
	if _, ok := p.PlatformIDs[marketplace]; ok {
		return ListingPublished
	}
	if p.Sold {
		return ListingWithdrawn
	}
	return ListingUnlisted
}

// MarkPublished commits the Unlisted -> Published (or Published -> Published)
// transition, recording the remote listing id and export timestamp together
// so the "exported iff linked" invariant cannot be half-applied.
func MarkPublished(p *Product, marketplace, listingID string, at time.Time) {
	if p.PlatformIDs == nil {
		p.PlatformIDs = StringMap{}
	}
	if p.ExportedTo == nil {
		p.ExportedTo = TimeMap{}
	}
	p.PlatformIDs[marketplace] = listingID
	p.ExportedTo[marketplace] = at
}

// MarkWithdrawn commits the Published -> Withdrawn transition, clearing the
// marketplace linkage. It is an error to withdraw a never-published record.
func MarkWithdrawn(p *Product, marketplace string) error {
	if _, ok := p.PlatformIDs[marketplace]; !ok {
		return fmt.Errorf("product %s is not published on %s", p.SKU, marketplace)
	}
	delete(p.PlatformIDs, marketplace)
	delete(p.ExportedTo, marketplace)
	return nil
}
