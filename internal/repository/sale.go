package repository

import (
	"context"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/pkg/xcontext"
)

type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	GetByTxHash(ctx context.Context, txHash string) (*entity.Sale, error)
	GetByAddress(ctx context.Context, address string) ([]entity.Sale, error)
}

type saleRepository struct{}

func NewSaleRepository() *saleRepository {
	return &saleRepository{}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	return xcontext.DB(ctx).Create(sale).Error
}

func (r *saleRepository) GetByTxHash(ctx context.Context, txHash string) (*entity.Sale, error) {
	var result entity.Sale
	err := xcontext.DB(ctx).Take(&result, "tx_hash=?", txHash).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *saleRepository) GetByAddress(ctx context.Context, address string) ([]entity.Sale, error) {
	var result []entity.Sale
	err := xcontext.DB(ctx).Preload("Artwork").
		Where("buyer_address=? OR seller_address=?", address, address).
		Order("created_at DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
