package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bansal-ishaan/TickkItOnn/internal/adapter"
	"github.com/bansal-ishaan/TickkItOnn/internal/domain"
	"github.com/bansal-ishaan/TickkItOnn/internal/ledger/schema"
)

type sqliteStore struct {
	db    *gorm.DB
	clock adapter.Clock
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&schema.Purchase{}, &schema.ResaleListing{})
}

// NewStore creates a ledger store over an opened gorm database
func NewStore(db *gorm.DB, clock adapter.Clock) Store {
	return &sqliteStore{db: db, clock: clock}
}

func (s *sqliteStore) RecordPurchase(ctx context.Context, purchase schema.Purchase) error {
	purchase.ID = 0 // always append, never overwrite
	purchase.BuyerAddress = strings.ToLower(purchase.BuyerAddress)
	if err := s.db.WithContext(ctx).Create(&purchase).Error; err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

func (s *sqliteStore) ListPurchasesFor(ctx context.Context, buyerAddress string) ([]schema.Purchase, error) {
	var purchases []schema.Purchase
	err := s.db.WithContext(ctx).
		Where("buyer_address = ?", strings.ToLower(buyerAddress)).
		Order("id ASC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

func (s *sqliteStore) CreateListing(ctx context.Context, ticket TicketRef, askPriceWei *big.Int, sellerAddress string) (*schema.ResaleListing, error) {
	if askPriceWei == nil || askPriceWei.Sign() <= 0 {
		return nil, fmt.Errorf("ask price must be positive")
	}

	originalPrice := "0"
	if ticket.OriginalPriceWei != nil {
		originalPrice = ticket.OriginalPriceWei.String()
	}

	listing := schema.ResaleListing{
		ListingID:        uuid.NewString(),
		EventID:          ticket.EventID,
		EventName:        ticket.EventName,
		EventVenue:       ticket.EventVenue,
		EventDateUnix:    ticket.EventDateUnix,
		HostNetworkID:    uint64(ticket.HostNetworkID),
		OriginalPriceWei: originalPrice,
		AskPriceWei:      askPriceWei.String(),
		SellerAddress:    sellerAddress,
		ListingTimestamp: s.clock.Now(),
		Status:           schema.ListingStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return &listing, nil
}

func (s *sqliteStore) ListActiveListings(ctx context.Context) ([]schema.ResaleListing, error) {
	var listings []schema.ResaleListing
	err := s.db.WithContext(ctx).
		Where("status = ?", schema.ListingStatusActive).
		Order("listing_timestamp ASC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active listings: %w", err)
	}
	return listings, nil
}

func (s *sqliteStore) ListListingsBySeller(ctx context.Context, sellerAddress string) ([]schema.ResaleListing, error) {
	var listings []schema.ResaleListing
	err := s.db.WithContext(ctx).
		Where("LOWER(seller_address) = ?", strings.ToLower(sellerAddress)).
		Order("listing_timestamp ASC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seller listings: %w", err)
	}
	return listings, nil
}

func (s *sqliteStore) SettleListing(ctx context.Context, listingID string, buyerAddress string) (*schema.ResaleListing, error) {
	var settled schema.ResaleListing

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing schema.ResaleListing
		if err := tx.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrListingUnavailable, listingID)
			}
			return fmt.Errorf("failed to load listing: %w", err)
		}

		// Validation order matters: self-purchase is rejected before any mutation
		if strings.EqualFold(listing.SellerAddress, buyerAddress) {
			return domain.ErrSelfPurchase
		}
		if listing.Status != schema.ListingStatusActive {
			return fmt.Errorf("%w: %s is %s", domain.ErrListingUnavailable, listingID, listing.Status)
		}

		buyer := strings.ToLower(buyerAddress)
		soldAt := s.clock.Now()

		// Status-guarded update: the WHERE clause is the check-and-set that
		// serializes settlement of the same listing.
		res := tx.Model(&schema.ResaleListing{}).
			Where("listing_id = ? AND status = ?", listingID, schema.ListingStatusActive).
			Updates(map[string]interface{}{
				"status":         schema.ListingStatusSold,
				"buyer_address":  buyer,
				"sold_timestamp": soldAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to settle listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s was settled concurrently", domain.ErrListingUnavailable, listingID)
		}

		purchase := schema.Purchase{
			EventID:           listing.EventID,
			EventName:         listing.EventName,
			HostNetworkID:     listing.HostNetworkID,
			Quantity:          1,
			TotalCostWei:      listing.AskPriceWei,
			PurchaseTimestamp: soldAt,
			BuyerAddress:      buyer,
			IsResalePurchase:  true,
			OriginalListingID: &listing.ListingID,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return fmt.Errorf("failed to record resale purchase: %w", err)
		}

		settled = listing
		settled.Status = schema.ListingStatusSold
		settled.BuyerAddress = &buyer
		settled.SoldTimestamp = &soldAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &settled, nil
}
