package ledger

import (
	"context"
	"math/big"

	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger/schema"
)

// TicketRef identifies an owned ticket being offered for resale, carrying the
// event metadata snapshot the listing preserves.
type TicketRef struct {
	EventID          uint64
	EventName        string
	EventVenue       string
	EventDateUnix    int64
	HostNetworkID    domain.NetworkID
	OriginalPriceWei *big.Int
}

// Store is the local ledger: purchases and resale listings persisted outside
// the process, supplementing on-chain state that has no indexer. The interface
// is deliberately narrow so the backing store can be swapped for a real
// indexing service without touching the callers.
type Store interface {
	// RecordPurchase appends a purchase record. Existing records are never
	// overwritten or deleted.
	RecordPurchase(ctx context.Context, purchase schema.Purchase) error

	// ListPurchasesFor returns the buyer's purchases in insertion order.
	// Address matching is case-insensitive.
	ListPurchasesFor(ctx context.Context, buyerAddress string) ([]schema.Purchase, error)

	// CreateListing creates an active resale listing for an owned ticket
	CreateListing(ctx context.Context, ticket TicketRef, askPriceWei *big.Int, sellerAddress string) (*schema.ResaleListing, error)

	// ListActiveListings returns all listings still open for purchase
	ListActiveListings(ctx context.Context) ([]schema.ResaleListing, error)

	// ListListingsBySeller returns all of a seller's listings, sold ones included
	ListListingsBySeller(ctx context.Context, sellerAddress string) ([]schema.ResaleListing, error)

	// SettleListing atomically marks a listing sold and records the buyer's
	// purchase. It fails with ErrSelfPurchase when the buyer is the seller and
	// ErrListingUnavailable when the listing is not active; on failure nothing
	// is mutated.
	SettleListing(ctx context.Context, listingID string, buyerAddress string) (*schema.ResaleListing, error)
}
