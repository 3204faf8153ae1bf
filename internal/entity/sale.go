package entity

// Sale is the append-only purchase audit trail. The unique index on
// TxHash is the idempotency key: a receipt can only be redeemed once.
type Sale struct {
	Base

	ArtworkID int64
	Artwork   Artwork `gorm:"foreignKey:ArtworkID"`

	ListingID     string
	BuyerAddress  string
	SellerAddress string
	Price         float64 `gorm:"type:decimal(24,8)"`
	TxHash        string  `gorm:"unique"`
}
