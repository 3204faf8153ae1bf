package domain

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/model"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/crypto"
	"github.com/tuklasart/backend/pkg/errorx"
	"github.com/tuklasart/backend/pkg/nonce"
	"github.com/tuklasart/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AuthDomain interface {
	WalletLogin(context.Context, *model.WalletLoginRequest) (*model.WalletLoginResponse, error)
	WalletVerify(context.Context, *model.WalletVerifyRequest) (*model.WalletVerifyResponse, error)
	Refresh(context.Context, *model.RefreshTokenRequest) (*model.RefreshTokenResponse, error)
}

type authDomain struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	nonceRegistry    nonce.Registry
}

func NewAuthDomain(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	nonceRegistry nonce.Registry,
) *authDomain {
	return &authDomain{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		nonceRegistry:    nonceRegistry,
	}
}

func (d *authDomain) WalletLogin(
	ctx context.Context, req *model.WalletLoginRequest,
) (*model.WalletLoginResponse, error) {
	if req.Address == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty address")
	}

	challenge, err := d.nonceRegistry.Issue(ctx, req.Address)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot issue login challenge: %v", err)
		return nil, errorx.Unknown
	}

	return &model.WalletLoginResponse{
		Address: req.Address,
		Message: challenge.Message,
	}, nil
}

func (d *authDomain) WalletVerify(
	ctx context.Context, req *model.WalletVerifyRequest,
) (*model.WalletVerifyResponse, error) {
	// The challenge is removed before the signature is checked, so a
	// failed attempt burns the nonce and the client must request a new
	// one.
	challenge, err := d.nonceRegistry.Consume(ctx, req.Address)
	if err != nil {
		if errors.Is(err, nonce.ErrNoChallenge) {
			return nil, errorx.New(errorx.InvalidNonce, "No challenge was issued for this address")
		}

		xcontext.Logger(ctx).Errorf("Cannot consume login challenge: %v", err)
		return nil, errorx.Unknown
	}

	if !strings.Contains(req.Message, challenge.Nonce) {
		return nil, errorx.New(errorx.InvalidNonce, "Got an invalid or expired nonce")
	}

	if err := verifyWalletAnswer(ctx, req.Signature, req.Message, req.Address); err != nil {
		return nil, err
	}

	user, err := d.userRepo.GetByWalletAddress(ctx, req.Address)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user by wallet address: %v", err)
			return nil, errorx.Unknown
		}

		// The admin address list is consulted only here. Later logins
		// trust the stored role even if the configuration changes.
		role := entity.UserRole
		if isAdminAddress(ctx, req.Address) {
			role = entity.AdminRole
		}

		user = &entity.User{
			Base:          entity.Base{ID: uuid.NewString()},
			WalletAddress: req.Address,
			Name:          req.Address,
			Role:          role,
		}

		if err := d.userRepo.Create(ctx, user); err != nil {
			// A concurrent first login for the same address may have
			// created the row between the lookup and the insert. The
			// stored account wins, whatever role it was given.
			if !repository.IsDuplicateKeyError(err) {
				xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
				return nil, errorx.Unknown
			}

			user, err = d.userRepo.GetByWalletAddress(ctx, req.Address)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot get user by wallet address: %v", err)
				return nil, errorx.Unknown
			}
		}
	}

	refreshToken, err := d.generateRefreshToken(ctx, user.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	accessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:      user.ID,
			Address: user.WalletAddress,
			Role:    user.Role,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.WalletVerifyResponse{
		User:         model.ConvertUser(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IsAdmin:      user.Role == entity.AdminRole,
	}, nil
}

func (d *authDomain) Refresh(
	ctx context.Context, req *model.RefreshTokenRequest,
) (*model.RefreshTokenResponse, error) {
	refreshToken := model.RefreshToken{}
	err := xcontext.TokenEngine(ctx).Verify(req.RefreshToken, &refreshToken)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Failed to verify refresh token: %v", err)
		return nil, errorx.Unknown
	}

	hashedFamily := crypto.SHA256([]byte(refreshToken.Family))
	storageToken, err := d.refreshTokenRepo.Get(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get refresh token family: %v", err)
		return nil, errorx.Unknown
	}

	if storageToken.Expiration.Before(time.Now()) {
		return nil, errorx.New(errorx.TokenExpired, "Your refresh token is expired")
	}

	// NOTE: DO NOT create transaction here. The delete and rotate query
	// is independent.
	if refreshToken.Counter != storageToken.Counter {
		err = d.refreshTokenRepo.Delete(ctx, hashedFamily)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete refresh token: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.StolenDetected,
			"Your refresh token will be revoked because it is detected as stolen")
	}

	err = d.refreshTokenRepo.Rotate(ctx, hashedFamily)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rotate the refresh token: %v", err)
		return nil, errorx.Unknown
	}

	newRefreshToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshToken.Family,
			Counter: refreshToken.Counter + 1,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetByID(ctx, storageToken.UserID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	newAccessToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.AccessToken.Expiration,
		model.AccessToken{
			ID:      user.ID,
			Address: user.WalletAddress,
			Role:    user.Role,
		})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RefreshTokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (d *authDomain) generateRefreshToken(ctx context.Context, userID string) (string, error) {
	refreshTokenFamily, err := crypto.GenerateRandomString()
	if err != nil {
		return "", err
	}

	refreshToken, err := xcontext.TokenEngine(ctx).Generate(
		xcontext.Configs(ctx).Auth.RefreshToken.Expiration,
		model.RefreshToken{
			Family:  refreshTokenFamily,
			Counter: 0,
		})
	if err != nil {
		return "", err
	}

	err = d.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		UserID:     userID,
		Family:     crypto.SHA256([]byte(refreshTokenFamily)),
		Counter:    0,
		Expiration: time.Now().Add(xcontext.Configs(ctx).Auth.RefreshToken.Expiration),
	})
	if err != nil {
		return "", err
	}

	return refreshToken, nil
}

func verifyWalletAnswer(ctx context.Context, hexSignature, message, claimedAddress string) error {
	hash := accounts.TextHash([]byte(message))
	signature, err := hexutil.Decode(hexSignature)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot decode signature: %v", err)
		return errorx.New(errorx.InvalidSignature, "Got an invalid signature")
	}

	if len(signature) <= ethcrypto.RecoveryIDOffset {
		return errorx.New(errorx.InvalidSignature, "Got an invalid signature")
	}

	if signature[ethcrypto.RecoveryIDOffset] == 27 || signature[ethcrypto.RecoveryIDOffset] == 28 {
		signature[ethcrypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}

	recovered, err := ethcrypto.SigToPub(hash, signature)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Cannot recover signature to address: %v", err)
		return errorx.New(errorx.InvalidSignature, "Got an invalid signature")
	}

	recoveredAddr := ethcrypto.PubkeyToAddress(*recovered)
	if !bytes.Equal(recoveredAddr.Bytes(), ethcommon.HexToAddress(claimedAddress).Bytes()) {
		return errorx.New(errorx.InvalidSignature, "Mismatched address")
	}

	return nil
}

func isAdminAddress(ctx context.Context, address string) bool {
	claimed := ethcommon.HexToAddress(address)
	for _, admin := range xcontext.Configs(ctx).Auth.AdminAddresses {
		if bytes.Equal(claimed.Bytes(), ethcommon.HexToAddress(admin).Bytes()) {
			return true
		}
	}

	return false
}
