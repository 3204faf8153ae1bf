package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tuklasart/backend/internal/common"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/cidutil"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ArtworkDomain interface {
	Submit(context.Context, *model.SubmitArtworkRequest) (*model.SubmitArtworkResponse, error)
	GetMine(context.Context, *model.GetMyArtworksRequest) (*model.GetMyArtworksResponse, error)
	RequestApproval(context.Context, *model.RequestApprovalRequest) (*model.RequestApprovalResponse, error)
}

type artworkDomain struct {
	artworkRepo       repository.ArtworkRepository
	approvalRepo      repository.ApprovalRepository
	userRepo          repository.UserRepository
	ownershipVerifier *common.OwnershipVerifier
}

func NewArtworkDomain(
	artworkRepo repository.ArtworkRepository,
	approvalRepo repository.ApprovalRepository,
	userRepo repository.UserRepository,
) *artworkDomain {
	return &artworkDomain{
		artworkRepo:       artworkRepo,
		approvalRepo:      approvalRepo,
		userRepo:          userRepo,
		ownershipVerifier: common.NewOwnershipVerifier(),
	}
}

func (d *artworkDomain) Submit(
	ctx context.Context, req *model.SubmitArtworkRequest,
) (*model.SubmitArtworkResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty title")
	}

	if err := cidutil.Validate(req.ImageCID); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Got an invalid image reference")
	}

	if req.Price <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Price must be positive")
	}

	user, err := d.userRepo.GetByID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if !user.KycApproved {
		return nil, errorx.New(errorx.PermissionDenied,
			"You must complete identity verification before submitting artwork")
	}

	artwork := &entity.Artwork{
		SnowFlakeBase: entity.SnowFlakeBase{ID: xcontext.SnowFlake(ctx).Generate().Int64()},
		OwnerID:       user.ID,
		Title:         req.Title,
		Description:   req.Description,
		ImageCID:      req.ImageCID,
		Price:         req.Price,
	}

	if err := d.artworkRepo.Create(ctx, artwork); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create artwork: %v", err)
		return nil, errorx.Unknown
	}

	artwork.Owner = *user
	return &model.SubmitArtworkResponse{Artwork: model.ConvertArtwork(artwork, "")}, nil
}

func (d *artworkDomain) GetMine(
	ctx context.Context, req *model.GetMyArtworksRequest,
) (*model.GetMyArtworksResponse, error) {
	artworks, err := d.artworkRepo.GetByOwnerID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get artworks: %v", err)
		return nil, errorx.Unknown
	}

	converted := []model.Artwork{}
	for i := range artworks {
		reason := ""
		if artworks[i].IsRejected {
			approval, err := d.approvalRepo.GetByArtworkID(ctx, artworks[i].ID)
			if err == nil {
				reason = approval.Reason
			}
		}

		converted = append(converted, model.ConvertArtwork(&artworks[i], reason))
	}

	return &model.GetMyArtworksResponse{Artworks: converted}, nil
}

func (d *artworkDomain) RequestApproval(
	ctx context.Context, req *model.RequestApprovalRequest,
) (*model.RequestApprovalResponse, error) {
	artwork, err := d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found artwork")
		}

		xcontext.Logger(ctx).Errorf("Cannot get artwork: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.ownershipVerifier.Verify(ctx, artwork.OwnerID); err != nil {
		return nil, errorx.New(errorx.PermissionDenied, "Only owner can request approval")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.artworkRepo.MarkPendingApproval(ctx, artwork.ID); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, errorx.New(errorx.AlreadyPending, "This artwork was already submitted for review")
		}

		xcontext.Logger(ctx).Errorf("Cannot mark artwork as pending approval: %v", err)
		return nil, errorx.Unknown
	}

	err = d.approvalRepo.Upsert(ctx, &entity.Approval{
		Base:      entity.Base{ID: uuid.NewString()},
		ArtworkID: artwork.ID,
		Status:    entity.ApprovalPending,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert approval record: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	artwork, err = d.artworkRepo.GetByID(ctx, req.ArtworkID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload artwork: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RequestApprovalResponse{Artwork: model.ConvertArtwork(artwork, "")}, nil
}
