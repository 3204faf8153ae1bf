package entity

import "database/sql"

// Artwork is the off-chain record of a creator submission. Its
// snowflake id doubles as the contract-side art id, so the mint call
// can be retried with a stable reference.
type Artwork struct {
	SnowFlakeBase

	OwnerID string
	Owner   User `gorm:"foreignKey:OwnerID"`

	Title       string
	Description string
	ImageCID    string
	Price       float64 `gorm:"type:decimal(24,8)"`

	TokenID    sql.NullInt64
	MintTxHash sql.NullString

	PendingApproval bool
	IsApproved      bool
	IsRejected      bool
	IsMinted        bool
	IsSold          bool

	SubmittedAt sql.NullTime
	ApprovedAt  sql.NullTime
	RejectedAt  sql.NullTime
	MintedAt    sql.NullTime
	SoldAt      sql.NullTime
}
