package repository_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/testutil"
)

func TestIsDuplicateKeyError(t *testing.T) {
	ctx := testutil.MockContext()

	require.False(t, repository.IsDuplicateKeyError(nil))

	// A second account for an already-registered wallet address hits
	// the unique index.
	err := repository.NewUserRepository().Create(ctx, &entity.User{
		Base:          entity.Base{ID: uuid.NewString()},
		WalletAddress: testutil.User1.WalletAddress,
		Name:          "impostor",
		Role:          entity.UserRole,
	})
	require.Error(t, err)
	require.True(t, repository.IsDuplicateKeyError(err))

	// Same for a second sale redeeming an already-recorded receipt.
	saleRepo := repository.NewSaleRepository()
	sale := entity.Sale{
		Base:          entity.Base{ID: uuid.NewString()},
		ArtworkID:     testutil.Artwork2.ID,
		ListingID:     testutil.Listing1.ID,
		BuyerAddress:  testutil.User2.WalletAddress,
		SellerAddress: testutil.User1.WalletAddress,
		Price:         testutil.Listing1.Price,
		TxHash:        "0xpayment1",
	}
	require.NoError(t, saleRepo.Create(ctx, &sale))

	duplicate := sale
	duplicate.ID = uuid.NewString()
	err = saleRepo.Create(ctx, &duplicate)
	require.Error(t, err)
	require.True(t, repository.IsDuplicateKeyError(err))
}
