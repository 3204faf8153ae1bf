package repository

import (
	"context"
	"time"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type KycRepository interface {
	Upsert(ctx context.Context, kyc *entity.Kyc) error
	GetByID(ctx context.Context, id string) (*entity.Kyc, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Kyc, error)
	GetPending(ctx context.Context) ([]entity.Kyc, error)
	Decide(ctx context.Context, id string, kyc *entity.Kyc) error
}

type kycRepository struct{}

func NewKycRepository() *kycRepository {
	return &kycRepository{}
}

// Upsert replaces a previous submission wholesale, so a rejected user
// can resubmit with corrected information.
func (r *kycRepository) Upsert(ctx context.Context, kyc *entity.Kyc) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"first_name":       kyc.FirstName,
				"middle_name":      kyc.MiddleName,
				"last_name":        kyc.LastName,
				"birth_date":       kyc.BirthDate,
				"birth_place":      kyc.BirthPlace,
				"gender":           kyc.Gender,
				"address":          kyc.Address,
				"id_photo_c_id":    kyc.IDPhotoCID,
				"status":           entity.KycPending,
				"is_approved":      false,
				"is_rejected":      false,
				"rejection_reason": nil,
				"submitted_at":     kyc.SubmittedAt,
				"decided_at":       nil,
			}),
		}).Create(kyc).Error
}

func (r *kycRepository) GetByID(ctx context.Context, id string) (*entity.Kyc, error) {
	var result entity.Kyc
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *kycRepository) GetByUserID(ctx context.Context, userID string) (*entity.Kyc, error) {
	var result entity.Kyc
	if err := xcontext.DB(ctx).Take(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *kycRepository) GetPending(ctx context.Context) ([]entity.Kyc, error) {
	var result []entity.Kyc
	err := xcontext.DB(ctx).Preload("User").
		Where("status=?", entity.KycPending).
		Order("submitted_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Decide only applies while the submission is still pending. The first
// review wins and later ones observe ErrNoRowsAffected.
func (r *kycRepository) Decide(ctx context.Context, id string, kyc *entity.Kyc) error {
	tx := xcontext.DB(ctx).Model(&entity.Kyc{}).
		Where("id=? AND status=?", id, entity.KycPending).
		Updates(map[string]any{
			"status":           kyc.Status,
			"is_approved":      kyc.IsApproved,
			"is_rejected":      kyc.IsRejected,
			"rejection_reason": kyc.RejectionReason,
			"decided_at":       time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
