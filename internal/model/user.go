package model

import "github.com/tuklasart/backend/internal/entity"

type User struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	AvatarURL     string `json:"avatar_url"`
	Role          string `json:"role"`
	KycApproved   bool   `json:"kyc_approved"`
}

func ConvertUser(user *entity.User) User {
	if user == nil {
		return User{}
	}

	return User{
		ID:            user.ID,
		WalletAddress: user.WalletAddress,
		Name:          user.Name,
		Bio:           user.Bio,
		AvatarURL:     user.AvatarURL,
		Role:          user.Role,
		KycApproved:   user.KycApproved,
	}
}

type GetMeRequest struct{}

type GetMeResponse struct {
	User User `json:"user"`
}

type GetUserRequest struct {
	WalletAddress string `uri:"address"`
}

type GetUserResponse struct {
	User User `json:"user"`
}

type UpdateProfileRequest struct {
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

type UpdateProfileResponse struct {
	User User `json:"user"`
}
