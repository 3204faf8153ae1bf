package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/pkg/xcontext"
)

// ErrNoRowsAffected is returned when a conditional update matched no
// row, meaning another request already moved the artwork out of the
// expected state.
var ErrNoRowsAffected = errors.New("no rows affected")

// IsDuplicateKeyError reports whether an insert failed on a unique
// index. Neither mysql nor sqlite expose a typed error through the
// driver, so the message is the only signal.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

type ArtworkRepository interface {
	Create(ctx context.Context, artwork *entity.Artwork) error
	GetByID(ctx context.Context, id int64) (*entity.Artwork, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]entity.Artwork, error)
	GetPendingApproval(ctx context.Context) ([]entity.Artwork, error)
	MarkPendingApproval(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
	SetMinted(ctx context.Context, id int64, tokenID int64, txHash string) error
	SetSold(ctx context.Context, id int64, sold bool) error
}

type artworkRepository struct{}

func NewArtworkRepository() *artworkRepository {
	return &artworkRepository{}
}

func (r *artworkRepository) Create(ctx context.Context, artwork *entity.Artwork) error {
	return xcontext.DB(ctx).Create(artwork).Error
}

func (r *artworkRepository) GetByID(ctx context.Context, id int64) (*entity.Artwork, error) {
	var result entity.Artwork
	err := xcontext.DB(ctx).Preload("Owner").Take(&result, "id=?", id).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *artworkRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]entity.Artwork, error) {
	var result []entity.Artwork
	err := xcontext.DB(ctx).Preload("Owner").
		Where("owner_id=?", ownerID).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *artworkRepository) GetPendingApproval(ctx context.Context) ([]entity.Artwork, error) {
	var result []entity.Artwork
	err := xcontext.DB(ctx).Preload("Owner").
		Where("pending_approval=?", true).
		Order("submitted_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// MarkPendingApproval transitions a draft or rejected artwork into the
// review queue. The condition keeps an approved or already-queued
// artwork from being re-queued by a concurrent request.
func (r *artworkRepository) MarkPendingApproval(ctx context.Context, id int64) error {
	tx := xcontext.DB(ctx).Model(&entity.Artwork{}).
		Where("id=? AND pending_approval=? AND is_approved=?", id, false, false).
		Updates(map[string]any{
			"pending_approval": true,
			"is_rejected":      false,
			"submitted_at":     time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

// Approve only fires while the artwork is still pending, so the first
// decision wins and every later one observes ErrNoRowsAffected.
func (r *artworkRepository) Approve(ctx context.Context, id int64) error {
	tx := xcontext.DB(ctx).Model(&entity.Artwork{}).
		Where("id=? AND pending_approval=?", id, true).
		Updates(map[string]any{
			"pending_approval": false,
			"is_approved":      true,
			"is_rejected":      false,
			"approved_at":      time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *artworkRepository) Reject(ctx context.Context, id int64) error {
	tx := xcontext.DB(ctx).Model(&entity.Artwork{}).
		Where("id=? AND pending_approval=?", id, true).
		Updates(map[string]any{
			"pending_approval": false,
			"is_approved":      false,
			"is_rejected":      true,
			"rejected_at":      time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *artworkRepository) SetMinted(ctx context.Context, id int64, tokenID int64, txHash string) error {
	tx := xcontext.DB(ctx).Model(&entity.Artwork{}).
		Where("id=? AND is_minted=?", id, false).
		Updates(map[string]any{
			"is_minted":    true,
			"token_id":     tokenID,
			"mint_tx_hash": txHash,
			"minted_at":    time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *artworkRepository) SetSold(ctx context.Context, id int64, sold bool) error {
	values := map[string]any{"is_sold": sold}
	if sold {
		values["sold_at"] = time.Now()
	}

	return xcontext.DB(ctx).Model(&entity.Artwork{}).
		Where("id=?", id).
		Updates(values).Error
}
