package repository

import (
	"context"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/pkg/xcontext"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	GetByArtworkID(ctx context.Context, artworkID int64) (*entity.Listing, error)
	GetAll(ctx context.Context) ([]entity.Listing, error)
	Delete(ctx context.Context, id string) error
}

type listingRepository struct{}

func NewListingRepository() *listingRepository {
	return &listingRepository{}
}

func (r *listingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	return xcontext.DB(ctx).Create(listing).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	var result entity.Listing
	err := xcontext.DB(ctx).Preload("Artwork").Preload("Artwork.Owner").
		Take(&result, "id=?", id).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *listingRepository) GetByArtworkID(ctx context.Context, artworkID int64) (*entity.Listing, error) {
	var result entity.Listing
	err := xcontext.DB(ctx).Take(&result, "artwork_id=?", artworkID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *listingRepository) GetAll(ctx context.Context) ([]entity.Listing, error) {
	var result []entity.Listing
	err := xcontext.DB(ctx).Preload("Artwork").Preload("Artwork.Owner").
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete hard-deletes the listing row. The caller must check
// ErrNoRowsAffected to detect losing a purchase or cancel race.
func (r *listingRepository) Delete(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Unscoped().Delete(&entity.Listing{}, "id=?", id)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}
