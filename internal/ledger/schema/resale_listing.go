package schema

import "time"

// Listing lifecycle states. A listing transitions from active to sold exactly
// once and is never deleted; history is retained.
const (
	ListingStatusActive = "active"
	ListingStatusSold   = "sold"
)

// ResaleListing is a locally indexed resale offer, snapshotting the event
// metadata at listing time.
type ResaleListing struct {
	ListingID     string `gorm:"primaryKey;type:text"`
	EventID       uint64 `gorm:"not null"`
	EventName     string `gorm:"type:text;not null"`
	EventVenue    string `gorm:"type:text"`
	EventDateUnix int64  `gorm:"not null"`
	HostNetworkID uint64 `gorm:"not null"`
	// Prices are wei amounts as decimal strings
	OriginalPriceWei string    `gorm:"type:text;not null"`
	AskPriceWei      string    `gorm:"type:text;not null"`
	SellerAddress    string    `gorm:"type:text;index;not null"`
	ListingTimestamp time.Time `gorm:"not null"`
	Status           string    `gorm:"type:text;index;not null"`
	BuyerAddress     *string   `gorm:"type:text"`
	SoldTimestamp    *time.Time
}

func (ResaleListing) TableName() string {
	return "resale_listings"
}
