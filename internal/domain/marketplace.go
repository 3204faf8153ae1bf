package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tuklasart/backend/internal/client"
	"github.com/tuklasart/backend/internal/common"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type MarketplaceDomain interface {
	GetListings(context.Context, *model.GetListingsRequest) (*model.GetListingsResponse, error)
	Buy(context.Context, *model.BuyRequest) (*model.BuyResponse, error)
	CancelListing(context.Context, *model.CancelListingRequest) (*model.CancelListingResponse, error)
	Relist(context.Context, *model.RelistRequest) (*model.RelistResponse, error)
	GetMySales(context.Context, *model.GetMySalesRequest) (*model.GetMySalesResponse, error)
}

type marketplaceDomain struct {
	listingRepo      repository.ListingRepository
	artworkRepo      repository.ArtworkRepository
	saleRepo         repository.SaleRepository
	userRepo         repository.UserRepository
	blockchainCaller client.BlockchainCaller

	ownershipVerifier *common.OwnershipVerifier
}

func NewMarketplaceDomain(
	listingRepo repository.ListingRepository,
	artworkRepo repository.ArtworkRepository,
	saleRepo repository.SaleRepository,
	userRepo repository.UserRepository,
	blockchainCaller client.BlockchainCaller,
) *marketplaceDomain {
	return &marketplaceDomain{
		listingRepo:      listingRepo,
		artworkRepo:      artworkRepo,
		saleRepo:         saleRepo,
		userRepo:         userRepo,
		blockchainCaller: blockchainCaller,

		ownershipVerifier: common.NewOwnershipVerifier(),
	}
}

func (d *marketplaceDomain) GetListings(
	ctx context.Context, req *model.GetListingsRequest,
) (*model.GetListingsResponse, error) {
	listings, err := d.listingRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get listings: %v", err)
		return nil, errorx.Unknown
	}

	converted := []model.Listing{}
	for _, listing := range listings {
		converted = append(converted, convertListing(&listing))
	}

	return &model.GetListingsResponse{Listings: converted}, nil
}

func (d *marketplaceDomain) Buy(
	ctx context.Context, req *model.BuyRequest,
) (*model.BuyResponse, error) {
	if req.TxHash == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty transaction hash")
	}

	listing, err := d.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found listing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get listing: %v", err)
		return nil, errorx.Unknown
	}

	buyer, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get buyer: %v", err)
		return nil, errorx.Unknown
	}

	if buyer.ID == listing.Artwork.OwnerID {
		return nil, errorx.New(errorx.SelfPurchase, "You cannot buy your own artwork")
	}

	// The transaction hash is the idempotency key. A receipt already
	// redeemed in the sale ledger cannot be redeemed again.
	_, err = d.saleRepo.GetByTxHash(ctx, req.TxHash)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyProcessed, "This transaction was already processed")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot check transaction hash: %v", err)
		return nil, errorx.Unknown
	}

	// The receipt is the only proof that payment happened. The backend
	// never moves funds itself.
	ok, err := d.blockchainCaller.GetReceipt(ctx, req.TxHash)
	if err != nil {
		if errors.Is(err, client.ErrTxNotFound) {
			return nil, errorx.New(errorx.TransactionNotFound, "Not found payment transaction on chain")
		}

		xcontext.Logger(ctx).Errorf("Cannot get receipt of %s: %v", req.TxHash, err)
		return nil, errorx.New(errorx.ChainUnavailable, "The blockchain is unavailable, please retry later")
	}

	if !ok {
		return nil, errorx.New(errorx.TransactionFailed, "The payment transaction failed on chain")
	}

	sale := &entity.Sale{
		Base:          entity.Base{ID: uuid.NewString()},
		ArtworkID:     listing.ArtworkID,
		ListingID:     listing.ID,
		BuyerAddress:  buyer.WalletAddress,
		SellerAddress: listing.Artwork.Owner.WalletAddress,
		Price:         listing.Price,
		TxHash:        req.TxHash,
	}

	// Deleting the listing is the serialization point. Exactly one of
	// two concurrent purchases observes a deleted row and wins.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.listingRepo.Delete(ctx, listing.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, errorx.New(errorx.NotFound, "This listing is no longer available")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete listing: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.saleRepo.Create(ctx, sale); err != nil {
		// The unique index on tx_hash backs up the pre-check when two
		// purchases race into the transaction with the same receipt.
		if repository.IsDuplicateKeyError(err) {
			return nil, errorx.New(errorx.AlreadyProcessed, "This transaction was already processed")
		}

		xcontext.Logger(ctx).Errorf("Cannot create sale record: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.artworkRepo.SetSold(ctx, listing.ArtworkID, true); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark artwork as sold: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.BuyResponse{SaleID: sale.ID, Message: "Purchase recorded"}, nil
}

func (d *marketplaceDomain) CancelListing(
	ctx context.Context, req *model.CancelListingRequest,
) (*model.CancelListingResponse, error) {
	listing, err := d.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found listing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get listing: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.ownershipVerifier.Verify(ctx, listing.Artwork.OwnerID); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Only owner can cancel the listing")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.listingRepo.Delete(ctx, listing.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, errorx.New(errorx.NotFound, "This listing is no longer available")
		}

		xcontext.Logger(ctx).Errorf("Cannot delete listing: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.artworkRepo.SetSold(ctx, listing.ArtworkID, false); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reset sold flag: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	return &model.CancelListingResponse{}, nil
}

func (d *marketplaceDomain) Relist(
	ctx context.Context, req *model.RelistRequest,
) (*model.RelistResponse, error) {
	if req.Price <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Price must be positive")
	}

	artwork, err := d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found artwork")
		}

		xcontext.Logger(ctx).Errorf("Cannot get artwork: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.ownershipVerifier.Verify(ctx, artwork.OwnerID); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Only owner can relist the artwork")
	}

	if !artwork.IsMinted || !artwork.IsApproved {
		return nil, errorx.New(errorx.NotMintedOrApproved, "This artwork is not minted or approved")
	}

	_, err = d.listingRepo.GetByArtworkID(ctx, artwork.ID)
	if err == nil {
		return nil, errorx.New(errorx.AlreadyListed, "This artwork is already listed")
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get listing: %v", err)
		return nil, errorx.Unknown
	}

	listing := &entity.Listing{
		Base:      entity.Base{ID: uuid.NewString()},
		ArtworkID: artwork.ID,
		TokenID:   artwork.TokenID.Int64,
		Price:     req.Price,
		Status:    entity.ListingStatusListed,
	}

	// The unique index on artwork_id turns a concurrent relist race
	// into a constraint violation for the loser.
	if err := d.listingRepo.Create(ctx, listing); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot create listing: %v", err)
		return nil, errorx.New(errorx.AlreadyListed, "This artwork is already listed")
	}

	listing.Artwork = *artwork
	return &model.RelistResponse{Listing: convertListing(listing)}, nil
}

func (d *marketplaceDomain) GetMySales(
	ctx context.Context, req *model.GetMySalesRequest,
) (*model.GetMySalesResponse, error) {
	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	sales, err := d.saleRepo.GetByAddress(ctx, user.WalletAddress)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get sales: %v", err)
		return nil, errorx.Unknown
	}

	converted := []model.Sale{}
	for _, sale := range sales {
		converted = append(converted, model.Sale{
			ID:            sale.ID,
			ArtworkID:     sale.ArtworkID,
			Title:         sale.Artwork.Title,
			ImageCID:      sale.Artwork.ImageCID,
			Price:         sale.Price,
			BuyerAddress:  sale.BuyerAddress,
			SellerAddress: sale.SellerAddress,
			TxHash:        sale.TxHash,
			CreatedAt:     sale.CreatedAt,
		})
	}

	return &model.GetMySalesResponse{Sales: converted}, nil
}

func convertListing(listing *entity.Listing) model.Listing {
	return model.Listing{
		ID:        listing.ID,
		ArtworkID: listing.ArtworkID,
		TokenID:   listing.TokenID,
		Title:     listing.Artwork.Title,
		ImageCID:  listing.Artwork.ImageCID,
		Price:     listing.Price,
		Status:    listing.Status,
		CreatedAt: listing.CreatedAt,
	}
}
