package domain

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/nonce"
	"github.com/tuklasart/backend/pkg/testutil"
	"github.com/tuklasart/backend/pkg/xcontext"
)

func newAuthDomainForTest(ctx context.Context) *authDomain {
	return NewAuthDomain(
		repository.NewUserRepository(),
		repository.NewRefreshTokenRepository(),
		nonce.NewMemoryRegistry(xcontext.Configs(ctx).Nonce.TTL),
	)
}

func TestWalletLoginAndVerify(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	loginResp, err := d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
	require.NoError(t, err)
	require.Contains(t, loginResp.Message, address)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)

	verifyResp, err := d.WalletVerify(ctx, &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   loginResp.Message,
	})
	require.NoError(t, err)
	require.NotEmpty(t, verifyResp.AccessToken)
	require.NotEmpty(t, verifyResp.RefreshToken)
	require.Equal(t, entity.UserRole, verifyResp.User.Role)
	require.False(t, verifyResp.IsAdmin)

	// The token must decode back to the created account.
	var accessToken model.AccessToken
	err = xcontext.TokenEngine(ctx).Verify(verifyResp.AccessToken, &accessToken)
	require.NoError(t, err)
	require.Equal(t, verifyResp.User.ID, accessToken.ID)
	require.Equal(t, address, accessToken.Address)
}

func TestWalletVerifyReplay(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	loginResp, err := d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)

	req := &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   loginResp.Message,
	}

	_, err = d.WalletVerify(ctx, req)
	require.NoError(t, err)

	// The challenge is single use. Replaying the same signed message
	// must fail.
	_, err = d.WalletVerify(ctx, req)
	require.Equal(t, errorx.New(errorx.InvalidNonce, "No challenge was issued for this address"), err)
}

func TestWalletVerifyWrongSigner(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	attacker, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	loginResp, err := d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), attacker)
	require.NoError(t, err)

	_, err = d.WalletVerify(ctx, &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   loginResp.Message,
	})
	require.Equal(t, errorx.New(errorx.InvalidSignature, "Mismatched address"), err)

	// A failed attempt burns the nonce too.
	signature, err = ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)
	_, err = d.WalletVerify(ctx, &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   loginResp.Message,
	})
	require.Equal(t, errorx.New(errorx.InvalidNonce, "No challenge was issued for this address"), err)
}

func TestWalletVerifyForeignNonce(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	_, err = d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
	require.NoError(t, err)

	// A self-made message without the issued nonce must be refused even
	// with a valid signature.
	forged := "Welcome to Tuklas!\n\nNonce: attacker-chosen"
	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(forged)), key)
	require.NoError(t, err)

	_, err = d.WalletVerify(ctx, &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   forged,
	})
	require.Equal(t, errorx.New(errorx.InvalidNonce, "Got an invalid or expired nonce"), err)
}

func TestWalletVerifyAdminAddress(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	cfg := xcontext.Configs(ctx)
	cfg.Auth.AdminAddresses = append(cfg.Auth.AdminAddresses, address)
	ctx = xcontext.WithConfigs(ctx, cfg)

	loginResp, err := d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
	require.NoError(t, err)

	verifyResp, err := d.WalletVerify(ctx, &model.WalletVerifyRequest{
		Address:   address,
		Signature: hexutil.Encode(signature),
		Message:   loginResp.Message,
	})
	require.NoError(t, err)
	require.True(t, verifyResp.IsAdmin)
	require.Equal(t, entity.AdminRole, verifyResp.User.Role)
}

func TestWalletVerifyTrustsStoredRole(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	login := func(ctx context.Context) *model.WalletVerifyResponse {
		loginResp, err := d.WalletLogin(ctx, &model.WalletLoginRequest{Address: address})
		require.NoError(t, err)

		signature, err := ethcrypto.Sign(accounts.TextHash([]byte(loginResp.Message)), key)
		require.NoError(t, err)

		verifyResp, err := d.WalletVerify(ctx, &model.WalletVerifyRequest{
			Address:   address,
			Signature: hexutil.Encode(signature),
			Message:   loginResp.Message,
		})
		require.NoError(t, err)
		return verifyResp
	}

	first := login(ctx)
	require.Equal(t, entity.UserRole, first.User.Role)

	// Adding the address to the admin list afterwards must not promote
	// the existing account. The stored role is authoritative.
	cfg := xcontext.Configs(ctx)
	cfg.Auth.AdminAddresses = append(cfg.Auth.AdminAddresses, address)
	second := login(xcontext.WithConfigs(ctx, cfg))
	require.Equal(t, entity.UserRole, second.User.Role)
	require.False(t, second.IsAdmin)
}

func TestRefreshRotationAndStolenDetection(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	refreshToken, err := d.generateRefreshToken(ctx, testutil.User1.ID)
	require.NoError(t, err)

	rotated, err := d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEmpty(t, rotated.RefreshToken)

	// Reusing the pre-rotation token means someone else already rotated
	// this family: the whole family is revoked.
	_, err = d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Equal(t, errorx.New(errorx.StolenDetected,
		"Your refresh token will be revoked because it is detected as stolen"), err)

	// And the rotated token dies with the family.
	_, err = d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: rotated.RefreshToken})
	require.Equal(t, errorx.Unknown, err)
}

func TestRefreshExpired(t *testing.T) {
	ctx := testutil.MockContext()
	d := newAuthDomainForTest(ctx)

	refreshToken, err := d.generateRefreshToken(ctx, testutil.User1.ID)
	require.NoError(t, err)

	// Age the stored family without touching the client token.
	err = xcontext.DB(ctx).Model(&entity.RefreshToken{}).
		Where("user_id=?", testutil.User1.ID).
		Update("expiration", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)

	_, err = d.Refresh(ctx, &model.RefreshTokenRequest{RefreshToken: refreshToken})
	require.Equal(t, errorx.New(errorx.TokenExpired, "Your refresh token is expired"), err)
}
