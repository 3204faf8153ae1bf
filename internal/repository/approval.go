package repository

import (
	"context"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ApprovalRepository interface {
	Upsert(ctx context.Context, approval *entity.Approval) error
	GetByArtworkID(ctx context.Context, artworkID int64) (*entity.Approval, error)
}

type approvalRepository struct{}

func NewApprovalRepository() *approvalRepository {
	return &approvalRepository{}
}

func (r *approvalRepository) Upsert(ctx context.Context, approval *entity.Approval) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "artwork_id"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"admin_id":   approval.AdminID,
				"status":     approval.Status,
				"reason":     approval.Reason,
				"decided_at": approval.DecidedAt,
			}),
		}).Create(approval).Error
}

func (r *approvalRepository) GetByArtworkID(ctx context.Context, artworkID int64) (*entity.Approval, error) {
	var result entity.Approval
	err := xcontext.DB(ctx).Take(&result, "artwork_id=?", artworkID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}
