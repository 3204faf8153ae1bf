package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/testutil"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm"
)

func newAdminDomainForTest(caller *testutil.MockBlockchainCaller) *adminDomain {
	return NewAdminDomain(
		repository.NewArtworkRepository(),
		repository.NewApprovalRepository(),
		repository.NewListingRepository(),
		repository.NewUserRepository(),
		caller,
	)
}

func submitForReview(t *testing.T, ctx context.Context, artworkID int64, ownerID string) {
	t.Helper()
	artworkDomain := newArtworkDomainForTest()
	ownerCtx := xcontext.WithRequestUserID(ctx, ownerID)
	_, err := artworkDomain.RequestApproval(ownerCtx, &model.RequestApprovalRequest{ArtworkID: artworkID})
	require.NoError(t, err)
}

func TestReviewArtworkApproveMintsAndLists(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	submitForReview(t, ctx, testutil.Artwork1.ID, testutil.User1.ID)

	resp, err := d.ReviewArtwork(ctx, &model.ReviewArtworkRequest{
		ArtworkID: testutil.Artwork1.ID,
		Approved:  true,
	})
	require.NoError(t, err)
	require.False(t, resp.Artwork.PendingApproval)
	require.True(t, resp.Artwork.IsApproved)
	require.True(t, resp.Artwork.IsMinted)
	require.NotNil(t, resp.Artwork.TokenID)
	require.Equal(t, testutil.Artwork1.ID, *resp.Artwork.TokenID)
	require.NotEmpty(t, resp.Artwork.MintTxHash)

	listing, err := repository.NewListingRepository().GetByArtworkID(ctx, testutil.Artwork1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Artwork1.Price, listing.Price)
}

func TestReviewArtworkReject(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	submitForReview(t, ctx, testutil.Artwork1.ID, testutil.User1.ID)

	resp, err := d.ReviewArtwork(ctx, &model.ReviewArtworkRequest{
		ArtworkID: testutil.Artwork1.ID,
		Approved:  false,
	})
	require.NoError(t, err)
	require.True(t, resp.Artwork.IsRejected)
	require.False(t, resp.Artwork.IsApproved)
	require.False(t, resp.Artwork.IsMinted)
	require.Equal(t, defaultRejectionReason, resp.Artwork.RejectionReason)

	// No listing and no mint for rejected artwork.
	_, err = repository.NewListingRepository().GetByArtworkID(ctx, testutil.Artwork1.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestReviewArtworkTwice(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	submitForReview(t, ctx, testutil.Artwork1.ID, testutil.User1.ID)

	_, err := d.ReviewArtwork(ctx, &model.ReviewArtworkRequest{
		ArtworkID: testutil.Artwork1.ID,
		Approved:  false,
		Reason:    "Not original work",
	})
	require.NoError(t, err)

	// The second decision loses the conditional update.
	_, err = d.ReviewArtwork(ctx, &model.ReviewArtworkRequest{
		ArtworkID: testutil.Artwork1.ID,
		Approved:  true,
	})
	require.Equal(t, errorx.New(errorx.AlreadyProcessed, "This artwork was already reviewed"), err)
}

func TestReviewArtworkMintFailure(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)

	caller := &testutil.MockBlockchainCaller{
		MintArtworkFunc: func(ctx context.Context, contractID int64, ownerAddress string) (string, error) {
			return "", errors.New("execution reverted")
		},
	}
	d := newAdminDomainForTest(caller)

	submitForReview(t, ctx, testutil.Artwork1.ID, testutil.User1.ID)

	_, err := d.ReviewArtwork(ctx, &model.ReviewArtworkRequest{
		ArtworkID: testutil.Artwork1.ID,
		Approved:  true,
	})
	require.Equal(t, errorx.New(errorx.MintFailed,
		"The mint transaction failed, please retry the mint later"), err)

	// The approval decision must survive the mint failure.
	artwork, err := repository.NewArtworkRepository().GetByID(ctx, testutil.Artwork1.ID)
	require.NoError(t, err)
	require.True(t, artwork.IsApproved)
	require.False(t, artwork.PendingApproval)
	require.False(t, artwork.IsMinted)

	// RetryMint finishes the job without re-running the decision.
	caller.MintArtworkFunc = nil
	resp, err := d.RetryMint(ctx, &model.RetryMintRequest{ArtworkID: testutil.Artwork1.ID})
	require.NoError(t, err)
	require.True(t, resp.Artwork.IsMinted)

	listing, err := repository.NewListingRepository().GetByArtworkID(ctx, testutil.Artwork1.ID)
	require.NoError(t, err)
	require.Equal(t, testutil.Artwork1.Price, listing.Price)
}

func TestRetryMintRecreatesMissingListing(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	// Artwork3 is approved but unminted.
	resp, err := d.RetryMint(ctx, &model.RetryMintRequest{ArtworkID: testutil.Artwork3.ID})
	require.NoError(t, err)
	require.True(t, resp.Artwork.IsMinted)

	// Once minted and listed, another retry has nothing to do.
	_, err = d.RetryMint(ctx, &model.RetryMintRequest{ArtworkID: testutil.Artwork3.ID})
	require.Equal(t, errorx.New(errorx.AlreadyProcessed, "This artwork was already minted and listed"), err)
}

func TestRetryMintUnapproved(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	_, err := d.RetryMint(ctx, &model.RetryMintRequest{ArtworkID: testutil.Artwork1.ID})
	require.Equal(t, errorx.New(errorx.NotMintedOrApproved, "This artwork is not approved"), err)
}

func TestGetPendingArtworks(t *testing.T) {
	ctx := testutil.MockContextWithUserID(testutil.Admin.ID)
	d := newAdminDomainForTest(&testutil.MockBlockchainCaller{})

	resp, err := d.GetPendingArtworks(ctx, &model.GetPendingArtworksRequest{})
	require.NoError(t, err)
	require.Empty(t, resp.Artworks)

	submitForReview(t, ctx, testutil.Artwork1.ID, testutil.User1.ID)

	resp, err = d.GetPendingArtworks(ctx, &model.GetPendingArtworksRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Artworks, 1)
	require.Equal(t, testutil.Artwork1.ID, resp.Artworks[0].ID)
}
