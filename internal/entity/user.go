package entity

const (
	AdminRole = "ADMIN"
	UserRole  = "USER"
)

type User struct {
	Base

	WalletAddress string `gorm:"unique"`
	Name          string
	Bio           string
	AvatarURL     string
	Role          string `gorm:"default:USER"`
	KycApproved   bool
}
