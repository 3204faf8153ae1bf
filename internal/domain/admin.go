package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

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

const defaultRejectionReason = "No reason provided"

type AdminDomain interface {
	GetPendingArtworks(context.Context, *model.GetPendingArtworksRequest) (*model.GetPendingArtworksResponse, error)
	ReviewArtwork(context.Context, *model.ReviewArtworkRequest) (*model.ReviewArtworkResponse, error)
	RetryMint(context.Context, *model.RetryMintRequest) (*model.RetryMintResponse, error)
}

type adminDomain struct {
	artworkRepo      repository.ArtworkRepository
	approvalRepo     repository.ApprovalRepository
	listingRepo      repository.ListingRepository
	userRepo         repository.UserRepository
	blockchainCaller client.BlockchainCaller
}

func NewAdminDomain(
	artworkRepo repository.ArtworkRepository,
	approvalRepo repository.ApprovalRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	blockchainCaller client.BlockchainCaller,
) *adminDomain {
	return &adminDomain{
		artworkRepo:      artworkRepo,
		approvalRepo:     approvalRepo,
		listingRepo:      listingRepo,
		userRepo:         userRepo,
		blockchainCaller: blockchainCaller,
	}
}

func (d *adminDomain) GetPendingArtworks(
	ctx context.Context, req *model.GetPendingArtworksRequest,
) (*model.GetPendingArtworksResponse, error) {
	artworks, err := d.artworkRepo.GetPendingApproval(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending artworks: %v", err)
		return nil, errorx.Unknown
	}

	converted := []model.Artwork{}
	for i := range artworks {
		converted = append(converted, model.ConvertArtwork(&artworks[i], ""))
	}

	return &model.GetPendingArtworksResponse{Artworks: converted}, nil
}

func (d *adminDomain) ReviewArtwork(
	ctx context.Context, req *model.ReviewArtworkRequest,
) (*model.ReviewArtworkResponse, error) {
	artwork, err := d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found artwork")
		}

		xcontext.Logger(ctx).Errorf("Cannot get artwork: %v", err)
		return nil, errorx.Unknown
	}

	reason := req.Reason
	if !req.Approved && reason == "" {
		reason = defaultRejectionReason
	}

	// The decision is committed before any chain interaction. The
	// conditional update serializes concurrent reviews: the loser sees
	// no rows affected.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if req.Approved {
		err = d.artworkRepo.Approve(ctx, artwork.ID)
	} else {
		err = d.artworkRepo.Reject(ctx, artwork.ID)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, errorx.New(errorx.AlreadyProcessed, "This artwork was already reviewed")
		}

		xcontext.Logger(ctx).Errorf("Cannot update artwork decision: %v", err)
		return nil, errorx.Unknown
	}

	status := entity.ApprovalApproved
	if !req.Approved {
		status = entity.ApprovalRejected
	}

	err = d.approvalRepo.Upsert(ctx, &entity.Approval{
		Base:      entity.Base{ID: uuid.NewString()},
		ArtworkID: artwork.ID,
		AdminID:   sql.NullString{Valid: true, String: xcontext.RequestUserID(ctx)},
		Status:    status,
		Reason:    reason,
		DecidedAt: sql.NullTime{Valid: true, Time: time.Now()},
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert approval record: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	if !req.Approved {
		artwork, err = d.artworkRepo.GetByID(ctx, req.ArtworkID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reload artwork: %v", err)
			return nil, errorx.Unknown
		}

		return &model.ReviewArtworkResponse{
			Artwork: model.ConvertArtwork(artwork, reason),
			Message: "Artwork rejected",
		}, nil
	}

	// The approval is already durable. A mint failure from here on
	// leaves the artwork approved but unminted, which RetryMint can
	// recover without re-running the decision.
	if err := d.mintAndList(ctx, artwork); err != nil {
		return nil, err
	}

	artwork, err = d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload artwork: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ReviewArtworkResponse{
		Artwork: model.ConvertArtwork(artwork, ""),
		Message: "Artwork approved and minted",
	}, nil
}

func (d *adminDomain) RetryMint(
	ctx context.Context, req *model.RetryMintRequest,
) (*model.RetryMintResponse, error) {
	artwork, err := d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found artwork")
		}

		xcontext.Logger(ctx).Errorf("Cannot get artwork: %v", err)
		return nil, errorx.Unknown
	}

	if !artwork.IsApproved {
		return nil, errorx.New(errorx.NotMintedOrApproved, "This artwork is not approved")
	}

	if artwork.IsMinted {
		// The mint already succeeded. Re-create the listing if it is
		// missing, otherwise there is nothing to retry.
		_, err := d.listingRepo.GetByArtworkID(ctx, artwork.ID)
		if err == nil {
			return nil, errorx.New(errorx.AlreadyProcessed, "This artwork was already minted and listed")
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get listing: %v", err)
			return nil, errorx.Unknown
		}

		if err := d.createListing(ctx, artwork); err != nil {
			return nil, err
		}
	} else {
		if err := d.mintAndList(ctx, artwork); err != nil {
			return nil, err
		}
	}

	artwork, err = d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload artwork: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RetryMintResponse{
		Artwork: model.ConvertArtwork(artwork, ""),
		Message: "Artwork minted and listed",
	}, nil
}

// mintAndList performs the irreversible chain call and records its
// result. No storage lock is held while waiting for the chain. The mint
// fields are committed on their own, then the listing is created; a
// listing failure after a successful mint is recoverable and never
// rolls back the mint record.
func (d *adminDomain) mintAndList(ctx context.Context, artwork *entity.Artwork) error {
	owner, err := d.userRepo.GetByID(ctx, artwork.OwnerID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get artwork owner: %v", err)
		return errorx.Unknown
	}

	txHash, err := d.blockchainCaller.MintArtwork(ctx, artwork.ID, owner.WalletAddress)
	if err != nil {
		common.PromCounters[common.BlockchainTransactionFailure].
			WithLabelValues("mint").Inc()
		xcontext.Logger(ctx).Errorf("Cannot mint artwork %d: %v", artwork.ID, err)

		if errors.Is(err, client.ErrChainUnavailable) {
			return errorx.New(errorx.ChainUnavailable, "The blockchain is unavailable, please retry the mint later")
		}

		return errorx.New(errorx.MintFailed, "The mint transaction failed, please retry the mint later")
	}

	// The artwork's contract-side id is its token id once minted.
	err = d.artworkRepo.SetMinted(ctx, artwork.ID, artwork.ID, txHash)
	if err != nil && !errors.Is(err, repository.ErrNoRowsAffected) {
		xcontext.Logger(ctx).Errorf("Cannot record mint of artwork %d: %v", artwork.ID, err)
		return errorx.Unknown
	}

	artwork.TokenID = sql.NullInt64{Valid: true, Int64: artwork.ID}
	artwork.IsMinted = true
	return d.createListing(ctx, artwork)
}

func (d *adminDomain) createListing(ctx context.Context, artwork *entity.Artwork) error {
	err := d.listingRepo.Create(ctx, &entity.Listing{
		Base:      entity.Base{ID: uuid.NewString()},
		ArtworkID: artwork.ID,
		TokenID:   artwork.TokenID.Int64,
		Price:     artwork.Price,
		Status:    entity.ListingStatusListed,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create listing for artwork %d: %v", artwork.ID, err)
		return errorx.Unknown
	}

	return nil
}
