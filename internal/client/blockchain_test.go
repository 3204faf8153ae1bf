package client

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/config"
	"github.com/tuklasart/backend/mocks"
	"github.com/tuklasart/backend/pkg/logger"
	"github.com/tuklasart/backend/pkg/xcontext"
)

// Well-known hardhat development key, never funded on a real network.
const operatorKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func newChainContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithConfigs(ctx, config.Configs{
		Eth: config.EthConfigs{
			ContractAddress:    "0x5FbDB2315678afecb367f032d93F642f64180aa3",
			OperatorPrivateKey: operatorKey,
			GasLimit:           300000,
			ConfirmTimeout:     time.Second,
			BlockTime:          5 * time.Millisecond,
		},
	})
	return ctx
}

func TestMintArtwork(t *testing.T) {
	ctx := newChainContext()

	ethClient := &mocks.EthClient{}
	ethClient.On("PendingNonceAt", mock.Anything, mock.Anything).Return(uint64(7), nil)
	ethClient.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1000000000), nil)
	ethClient.On("ChainID", mock.Anything).Return(big.NewInt(31337), nil)
	ethClient.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil)

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	txHash, err := caller.MintArtwork(ctx, 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.NoError(t, err)
	require.Len(t, txHash, 66)
	require.Equal(t, "0x", txHash[:2])

	ethClient.AssertExpectations(t)
}

func TestMintArtworkResubmission(t *testing.T) {
	ctx := newChainContext()

	ethClient := &mocks.EthClient{}
	ethClient.On("PendingNonceAt", mock.Anything, mock.Anything).Return(uint64(7), nil)
	ethClient.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1000000000), nil)
	ethClient.On("ChainID", mock.Anything).Return(big.NewInt(31337), nil)
	ethClient.On("SendTransaction", mock.Anything, mock.Anything).
		Return(errors.New("already known"))
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil)

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	// Resending a known transaction is not a failure, the first
	// submission is still in the pool.
	txHash, err := caller.MintArtwork(ctx, 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.NoError(t, err)
	require.NotEmpty(t, txHash)
}

func TestMintArtworkChainUnavailable(t *testing.T) {
	ctx := newChainContext()

	ethClient := &mocks.EthClient{}
	ethClient.On("PendingNonceAt", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	_, err = caller.MintArtwork(ctx, 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.ErrorIs(t, err, ErrChainUnavailable)
}

func TestMintArtworkReverted(t *testing.T) {
	ctx := newChainContext()

	ethClient := &mocks.EthClient{}
	ethClient.On("PendingNonceAt", mock.Anything, mock.Anything).Return(uint64(7), nil)
	ethClient.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1000000000), nil)
	ethClient.On("ChainID", mock.Anything).Return(big.NewInt(31337), nil)
	ethClient.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed}, nil)

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	txHash, err := caller.MintArtwork(ctx, 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.ErrorIs(t, err, ErrReverted)
	require.NotEmpty(t, txHash)
}

func TestMintArtworkConfirmTimeout(t *testing.T) {
	ctx := newChainContext()
	cfg := xcontext.Configs(ctx)
	cfg.Eth.ConfirmTimeout = 20 * time.Millisecond
	ctx = xcontext.WithConfigs(ctx, cfg)

	ethClient := &mocks.EthClient{}
	ethClient.On("PendingNonceAt", mock.Anything, mock.Anything).Return(uint64(7), nil)
	ethClient.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(1000000000), nil)
	ethClient.On("ChainID", mock.Anything).Return(big.NewInt(31337), nil)
	ethClient.On("SendTransaction", mock.Anything, mock.Anything).Return(nil)
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(nil, ethereum.NotFound)

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	txHash, err := caller.MintArtwork(ctx, 1, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	require.ErrorIs(t, err, ErrConfirmTimeout)
	require.NotEmpty(t, txHash)
}

func TestGetReceipt(t *testing.T) {
	ctx := newChainContext()

	ethClient := &mocks.EthClient{}
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil).Once()
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed}, nil).Once()
	ethClient.On("TransactionReceipt", mock.Anything, mock.Anything).
		Return(nil, ethereum.NotFound).Once()

	caller, err := NewBlockchainCaller(ethClient)
	require.NoError(t, err)

	ok, err := caller.GetReceipt(ctx, "0xc0ffee")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = caller.GetReceipt(ctx, "0xc0ffee")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = caller.GetReceipt(ctx, "0xc0ffee")
	require.ErrorIs(t, err, ErrTxNotFound)
}
