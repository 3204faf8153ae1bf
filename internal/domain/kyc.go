package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/cidutil"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type KycDomain interface {
	Submit(context.Context, *model.SubmitKycRequest) (*model.SubmitKycResponse, error)
	GetStatus(context.Context, *model.GetKycStatusRequest) (*model.GetKycStatusResponse, error)
	GetPending(context.Context, *model.GetPendingKycRequest) (*model.GetPendingKycResponse, error)
	Review(context.Context, *model.ReviewKycRequest) (*model.ReviewKycResponse, error)
}

type kycDomain struct {
	kycRepo  repository.KycRepository
	userRepo repository.UserRepository
}

func NewKycDomain(kycRepo repository.KycRepository, userRepo repository.UserRepository) *kycDomain {
	return &kycDomain{kycRepo: kycRepo, userRepo: userRepo}
}

func (d *kycDomain) Submit(
	ctx context.Context, req *model.SubmitKycRequest,
) (*model.SubmitKycResponse, error) {
	if req.FirstName == "" || req.LastName == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty name")
	}

	if err := cidutil.Validate(req.IDPhotoCID); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Got an invalid identity photo reference")
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Got an invalid birth date, expected YYYY-MM-DD")
	}

	userID := xcontext.RequestUserID(ctx)

	existing, err := d.kycRepo.GetByUserID(ctx, userID)
	if err == nil && !existing.IsRejected {
		return nil, errorx.New(errorx.AlreadyExists, "You already have a submission under review or approved")
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	kyc := &entity.Kyc{
		Base:        entity.Base{ID: uuid.NewString()},
		UserID:      userID,
		FirstName:   req.FirstName,
		MiddleName:  sql.NullString{Valid: req.MiddleName != "", String: req.MiddleName},
		LastName:    req.LastName,
		BirthDate:   birthDate,
		BirthPlace:  req.BirthPlace,
		Gender:      req.Gender,
		Address:     req.Address,
		IDPhotoCID:  req.IDPhotoCID,
		Status:      entity.KycPending,
		SubmittedAt: time.Now(),
	}

	if err := d.kycRepo.Upsert(ctx, kyc); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot upsert kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	return &model.SubmitKycResponse{
		KycID:       kyc.ID,
		Status:      string(kyc.Status),
		SubmittedAt: kyc.SubmittedAt,
	}, nil
}

func (d *kycDomain) GetStatus(
	ctx context.Context, req *model.GetKycStatusRequest,
) (*model.GetKycStatusResponse, error) {
	kyc, err := d.kycRepo.GetByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "You have no identity submission yet")
		}

		xcontext.Logger(ctx).Errorf("Cannot get kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetKycStatusResponse{Submission: convertKyc(kyc)}, nil
}

func (d *kycDomain) GetPending(
	ctx context.Context, req *model.GetPendingKycRequest,
) (*model.GetPendingKycResponse, error) {
	submissions, err := d.kycRepo.GetPending(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending kyc submissions: %v", err)
		return nil, errorx.Unknown
	}

	converted := []model.KycSubmission{}
	for i := range submissions {
		converted = append(converted, convertKyc(&submissions[i]))
	}

	return &model.GetPendingKycResponse{Submissions: converted}, nil
}

func (d *kycDomain) Review(
	ctx context.Context, req *model.ReviewKycRequest,
) (*model.ReviewKycResponse, error) {
	kyc, err := d.kycRepo.GetByID(ctx, req.KycID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found submission")
		}

		xcontext.Logger(ctx).Errorf("Cannot get kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	reason := req.Reason
	if !req.Approved && reason == "" {
		reason = defaultRejectionReason
	}

	decided := &entity.Kyc{
		IsApproved:      req.Approved,
		IsRejected:      !req.Approved,
		RejectionReason: sql.NullString{Valid: !req.Approved, String: reason},
	}

	if req.Approved {
		decided.Status = entity.KycApproved
	} else {
		decided.Status = entity.KycRejected
	}

	// The decision and the account's verified flag move together.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.kycRepo.Decide(ctx, kyc.ID, decided); err != nil {
		if errors.Is(err, repository.ErrNoRowsAffected) {
			return nil, errorx.New(errorx.AlreadyProcessed, "This submission was already reviewed")
		}

		xcontext.Logger(ctx).Errorf("Cannot decide kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userRepo.SetKycApproved(ctx, kyc.UserID, req.Approved); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update user verification flag: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	kyc, err = d.kycRepo.GetByID(ctx, req.KycID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload kyc submission: %v", err)
		return nil, errorx.Unknown
	}

	return &model.ReviewKycResponse{Submission: convertKyc(kyc)}, nil
}

func convertKyc(kyc *entity.Kyc) model.KycSubmission {
	return model.KycSubmission{
		KycID:           kyc.ID,
		UserID:          kyc.UserID,
		FirstName:       kyc.FirstName,
		MiddleName:      kyc.MiddleName.String,
		LastName:        kyc.LastName,
		BirthDate:       kyc.BirthDate,
		BirthPlace:      kyc.BirthPlace,
		Gender:          kyc.Gender,
		Address:         kyc.Address,
		IDPhotoCID:      kyc.IDPhotoCID,
		Status:          string(kyc.Status),
		IsApproved:      kyc.IsApproved,
		RejectionReason: kyc.RejectionReason.String,
	}
}
