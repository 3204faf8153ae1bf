package entity

const ListingStatusListed = "LISTED"

// Listing is an active sale offer. At most one exists per artwork; it
// is deleted on purchase or cancellation and recreated on relist.
type Listing struct {
	Base

	ArtworkID int64   `gorm:"unique"`
	Artwork   Artwork `gorm:"foreignKey:ArtworkID"`

	TokenID int64
	Price   float64 `gorm:"type:decimal(24,8)"`
	Status  string  `gorm:"default:LISTED"`
}
