package model

import (
	"time"

	"github.com/tuklasart/backend/internal/entity"
)

type Artwork struct {
	ID              int64      `json:"id"`
	Owner           User       `json:"owner"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	ImageCID        string     `json:"image_cid"`
	Price           float64    `json:"price"`
	TokenID         *int64     `json:"token_id,omitempty"`
	MintTxHash      string     `json:"mint_tx_hash,omitempty"`
	PendingApproval bool       `json:"pending_approval"`
	IsApproved      bool       `json:"is_approved"`
	IsRejected      bool       `json:"is_rejected"`
	IsMinted        bool       `json:"is_minted"`
	IsSold          bool       `json:"is_sold"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	MintedAt        *time.Time `json:"minted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func ConvertArtwork(artwork *entity.Artwork, rejectionReason string) Artwork {
	if artwork == nil {
		return Artwork{}
	}

	converted := Artwork{
		ID:              artwork.ID,
		Owner:           ConvertUser(&artwork.Owner),
		Title:           artwork.Title,
		Description:     artwork.Description,
		ImageCID:        artwork.ImageCID,
		Price:           artwork.Price,
		PendingApproval: artwork.PendingApproval,
		IsApproved:      artwork.IsApproved,
		IsRejected:      artwork.IsRejected,
		IsMinted:        artwork.IsMinted,
		IsSold:          artwork.IsSold,
		RejectionReason: rejectionReason,
		CreatedAt:       artwork.CreatedAt,
	}

	if artwork.TokenID.Valid {
		converted.TokenID = &artwork.TokenID.Int64
	}
	if artwork.MintTxHash.Valid {
		converted.MintTxHash = artwork.MintTxHash.String
	}
	if artwork.SubmittedAt.Valid {
		converted.SubmittedAt = &artwork.SubmittedAt.Time
	}
	if artwork.ApprovedAt.Valid {
		converted.ApprovedAt = &artwork.ApprovedAt.Time
	}
	if artwork.MintedAt.Valid {
		converted.MintedAt = &artwork.MintedAt.Time
	}

	return converted
}

type SubmitArtworkRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageCID    string  `json:"image_cid"`
	Price       float64 `json:"price"`
}

type SubmitArtworkResponse struct {
	Artwork Artwork `json:"artwork"`
}

type GetMyArtworksRequest struct{}

type GetMyArtworksResponse struct {
	Artworks []Artwork `json:"artworks"`
}

type RequestApprovalRequest struct {
	ArtworkID int64 `uri:"id"`
}

type RequestApprovalResponse struct {
	Artwork Artwork `json:"artwork"`
}
