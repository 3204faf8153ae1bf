package testutil

import (
	"context"
	"database/sql"

	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/repository"
)

const AdminAddress = "0x1B8c1E44E9D8a4bdE2FDc1cc976F3c0F0AAe1B5c"

var (
	User1 = entity.User{
		Base:          entity.Base{ID: "user1"},
		WalletAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Name:          "user1",
		Role:          entity.UserRole,
		KycApproved:   true,
	}

	User2 = entity.User{
		Base:          entity.Base{ID: "user2"},
		WalletAddress: "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
		Name:          "user2",
		Role:          entity.UserRole,
		KycApproved:   true,
	}

	User3 = entity.User{
		Base:          entity.Base{ID: "user3"},
		WalletAddress: "0x90F79bf6EB2c4f870365E785982E1f101E93b906",
		Name:          "user3",
		Role:          entity.UserRole,
		KycApproved:   false,
	}

	Admin = entity.User{
		Base:          entity.Base{ID: "admin"},
		WalletAddress: AdminAddress,
		Name:          "admin",
		Role:          entity.AdminRole,
		KycApproved:   true,
	}

	// Artwork1 is a fresh draft owned by User1.
	Artwork1 = entity.Artwork{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 1},
		OwnerID:       User1.ID,
		Title:         "Sunrise Over Taal",
		Description:   "Oil on canvas",
		ImageCID:      "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
		Price:         1.5,
	}

	// Artwork2 is minted and listed for sale by User1 as Listing1.
	Artwork2 = entity.Artwork{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 2},
		OwnerID:       User1.ID,
		Title:         "Manila Bay at Dusk",
		Description:   "Digital painting",
		ImageCID:      "bafybeihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
		Price:         3,
		TokenID:       sql.NullInt64{Valid: true, Int64: 2},
		MintTxHash:    sql.NullString{Valid: true, String: "0xmint2"},
		IsApproved:    true,
		IsMinted:      true,
	}

	// Artwork3 is approved but its mint never completed.
	Artwork3 = entity.Artwork{
		SnowFlakeBase: entity.SnowFlakeBase{ID: 3},
		OwnerID:       User2.ID,
		Title:         "Cordillera Terraces",
		Description:   "Watercolor",
		ImageCID:      "bafybeibwzifw52ttrkqlikfzext5akxu7lz4xiwjgwzmqcpdzmp3n5vnje",
		Price:         2.25,
		IsApproved:    true,
	}

	Listing1 = entity.Listing{
		Base:      entity.Base{ID: "listing1"},
		ArtworkID: Artwork2.ID,
		TokenID:   2,
		Price:     3,
		Status:    entity.ListingStatusListed,
	}
)

func insertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	for _, user := range []entity.User{User1, User2, User3, Admin} {
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func insertArtworks(ctx context.Context) {
	artworkRepo := repository.NewArtworkRepository()
	for _, artwork := range []entity.Artwork{Artwork1, Artwork2, Artwork3} {
		if err := artworkRepo.Create(ctx, &artwork); err != nil {
			panic(err)
		}
	}

	if err := repository.NewListingRepository().Create(ctx, &Listing1); err != nil {
		panic(err)
	}
}
