package model

import "time"

type Listing struct {
	ID        string    `json:"id"`
	ArtworkID int64     `json:"artwork_id"`
	TokenID   int64     `json:"token_id"`
	Title     string    `json:"title"`
	ImageCID  string    `json:"image_cid"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type GetListingsRequest struct{}

type GetListingsResponse struct {
	Listings []Listing `json:"listings"`
}

type BuyRequest struct {
	ListingID string `uri:"listing_id"`
	TxHash    string `json:"tx_hash"`
}

type BuyResponse struct {
	SaleID  string `json:"sale_id"`
	Message string `json:"message"`
}

type CancelListingRequest struct {
	ListingID string `uri:"listing_id"`
}

type CancelListingResponse struct{}

type RelistRequest struct {
	ArtworkID int64   `uri:"artwork_id"`
	Price     float64 `json:"price"`
}

type RelistResponse struct {
	Listing Listing `json:"listing"`
}

type Sale struct {
	ID            string    `json:"id"`
	ArtworkID     int64     `json:"artwork_id"`
	Title         string    `json:"title"`
	ImageCID      string    `json:"image_cid"`
	Price         float64   `json:"price"`
	BuyerAddress  string    `json:"buyer_address"`
	SellerAddress string    `json:"seller_address"`
	TxHash        string    `json:"tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

type GetMySalesRequest struct{}

type GetMySalesResponse struct {
	Sales []Sale `json:"sales"`
}
