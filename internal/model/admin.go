package model

type GetPendingArtworksRequest struct{}

type GetPendingArtworksResponse struct {
	Artworks []Artwork `json:"artworks"`
}

type ReviewArtworkRequest struct {
	ArtworkID int64  `uri:"id"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason"`
}

type ReviewArtworkResponse struct {
	Artwork Artwork `json:"artwork"`
	Message string  `json:"message"`
}

type RetryMintRequest struct {
	ArtworkID int64 `uri:"id"`
}

type RetryMintResponse struct {
	Artwork Artwork `json:"artwork"`
	Message string  `json:"message"`
}
