package schema

import "time"

// Purchase is one descriptive purchase record. The chain holds the
// authoritative ownership counts; these rows carry the event metadata the
// contract does not index. Rows are append-only and never deleted.
type Purchase struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	EventID       uint64 `gorm:"not null"`
	EventName     string `gorm:"type:text;not null"`
	HostNetworkID uint64 `gorm:"not null"`
	Quantity      uint64 `gorm:"not null"`
	// TotalCostWei is the wei amount as a decimal string; sqlite has no
	// arbitrary-precision integer column.
	TotalCostWei      string    `gorm:"type:text;not null"`
	PurchaseTimestamp time.Time `gorm:"not null"`
	// BuyerAddress is stored lowercased so lookups are case-insensitive.
	BuyerAddress      string  `gorm:"type:text;index;not null"`
	IsResalePurchase  bool    `gorm:"not null;default:false"`
	OriginalListingID *string `gorm:"type:text"`
}

func (Purchase) TableName() string {
	return "purchases"
}
