package model

import "time"

type SubmitKycRequest struct {
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	BirthDate  string `json:"birth_date"`
	BirthPlace string `json:"birth_place"`
	Gender     string `json:"gender"`
	Address    string `json:"address"`
	IDPhotoCID string `json:"id_photo_cid"`
}

type SubmitKycResponse struct {
	KycID       string    `json:"kyc_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type KycSubmission struct {
	KycID           string    `json:"kyc_id"`
	UserID          string    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	MiddleName      string    `json:"middle_name,omitempty"`
	LastName        string    `json:"last_name"`
	BirthDate       time.Time `json:"birth_date"`
	BirthPlace      string    `json:"birth_place"`
	Gender          string    `json:"gender"`
	Address         string    `json:"address"`
	IDPhotoCID      string    `json:"id_photo_cid"`
	Status          string    `json:"status"`
	IsApproved      bool      `json:"is_approved"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
}

type GetKycStatusRequest struct{}

type GetKycStatusResponse struct {
	Submission KycSubmission `json:"submission"`
}

type GetPendingKycRequest struct{}

type GetPendingKycResponse struct {
	Submissions []KycSubmission `json:"submissions"`
}

type ReviewKycRequest struct {
	KycID    string `uri:"id"`
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

type ReviewKycResponse struct {
	Submission KycSubmission `json:"submission"`
}
