package entity

import (
	"database/sql"
	"time"

	"github.com/tuklasart/backend/pkg/enum"
)

type KycStatusType string

var (
	KycPending  = enum.New(KycStatusType("pending"))
	KycApproved = enum.New(KycStatusType("approved"))
	KycRejected = enum.New(KycStatusType("rejected"))
)

type Kyc struct {
	Base

	UserID string `gorm:"unique"`
	User   User   `gorm:"foreignKey:UserID"`

	FirstName  string
	MiddleName sql.NullString
	LastName   string
	BirthDate  time.Time
	BirthPlace string
	Gender     string
	Address    string
	IDPhotoCID string

	Status          KycStatusType
	IsApproved      bool
	IsRejected      bool
	RejectionReason sql.NullString

	SubmittedAt time.Time
	DecidedAt   sql.NullTime
}
