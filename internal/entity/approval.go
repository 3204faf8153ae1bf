package entity

import (
	"database/sql"

	"github.com/tuklasart/backend/pkg/enum"
)

type ApprovalStatusType string

var (
	ApprovalPending  = enum.New(ApprovalStatusType("pending"))
	ApprovalApproved = enum.New(ApprovalStatusType("approved"))
	ApprovalRejected = enum.New(ApprovalStatusType("rejected"))
)

// Approval keeps only the latest review decision per artwork.
type Approval struct {
	Base

	ArtworkID int64   `gorm:"unique"`
	Artwork   Artwork `gorm:"foreignKey:ArtworkID"`

	AdminID sql.NullString
	Admin   User `gorm:"foreignKey:AdminID"`

	Status    ApprovalStatusType
	Reason    string
	DecidedAt sql.NullTime
}
