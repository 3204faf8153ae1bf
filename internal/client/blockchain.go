package client

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tuklasart/backend/pkg/blockchain/eth"
	"github.com/tuklasart/backend/pkg/xcontext"
)

var (
	// ErrChainUnavailable covers dial, nonce, gas, and submission
	// failures where the transaction never reached the chain.
	ErrChainUnavailable = errors.New("chain unavailable")

	// ErrReverted means the mint transaction was mined but failed.
	ErrReverted = errors.New("transaction reverted")

	// ErrTxNotFound means no receipt exists for the given hash.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrConfirmTimeout means the transaction was submitted but no
	// receipt appeared within the confirmation window. The transaction
	// may still confirm later.
	ErrConfirmTimeout = errors.New("confirmation timed out")
)

const marketplaceABI = `[
	{
		"name": "approveAndMintArt",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "artId", "type": "uint256"},
			{"name": "artist", "type": "address"}
		],
		"outputs": []
	}
]`

// BlockchainCaller is the only component that talks to the chain. It
// submits the mint transaction for an approved artwork and looks up
// receipts for payment verification.
type BlockchainCaller interface {
	MintArtwork(ctx context.Context, contractID int64, ownerAddress string) (string, error)
	GetReceipt(ctx context.Context, txHash string) (bool, error)
	Close()
}

type blockchainCaller struct {
	client      eth.EthClient
	contractABI abi.ABI
}

func NewBlockchainCaller(client eth.EthClient) (*blockchainCaller, error) {
	parsed, err := abi.JSON(strings.NewReader(marketplaceABI))
	if err != nil {
		return nil, err
	}

	return &blockchainCaller{client: client, contractABI: parsed}, nil
}

func (c *blockchainCaller) MintArtwork(
	ctx context.Context, contractID int64, ownerAddress string,
) (string, error) {
	cfg := xcontext.Configs(ctx).Eth

	data, err := c.contractABI.Pack(
		"approveAndMintArt", big.NewInt(contractID), common.HexToAddress(ownerAddress))
	if err != nil {
		return "", err
	}

	privateKey, err := ethcrypto.HexToECDSA(cfg.OperatorPrivateKey)
	if err != nil {
		return "", err
	}
	operator := ethcrypto.PubkeyToAddress(privateKey.PublicKey)

	nonce, err := c.client.PendingNonceAt(ctx, operator)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get pending nonce: %v", err)
		return "", ErrChainUnavailable
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot suggest gas price: %v", err)
		return "", ErrChainUnavailable
	}

	// Bump the suggested price by 20% the way the original operator
	// wallet did, to avoid being stuck at spikes.
	gasPrice = new(big.Int).Div(new(big.Int).Mul(gasPrice, big.NewInt(12)), big.NewInt(10))

	chainID, err := c.client.ChainID(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get chain id: %v", err)
		return "", ErrChainUnavailable
	}

	tx := ethtypes.NewTransaction(
		nonce, common.HexToAddress(cfg.ContractAddress), big.NewInt(0), cfg.GasLimit, gasPrice, data)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewLondonSigner(chainID), privateKey)
	if err != nil {
		return "", err
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		// Submission duplication is counted as success. Ethereum does
		// not return error codes over JSON RPC, so string matching is
		// the only option here.
		if !strings.Contains(err.Error(), "already known") {
			xcontext.Logger(ctx).Errorf("Cannot send mint transaction: %v", err)
			return "", ErrChainUnavailable
		}
	}

	txHash := signedTx.Hash().Hex()
	if err := c.waitMined(ctx, signedTx.Hash()); err != nil {
		return txHash, err
	}

	return txHash, nil
}

func (c *blockchainCaller) waitMined(ctx context.Context, txHash common.Hash) error {
	cfg := xcontext.Configs(ctx).Eth

	blockTime := cfg.BlockTime
	if blockTime <= 0 {
		blockTime = 2 * time.Second
	}

	waitCtx := ctx
	if cfg.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.ConfirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(waitCtx, txHash)
		if err == nil {
			if receipt.Status != ethtypes.ReceiptStatusSuccessful {
				return ErrReverted
			}
			return nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			xcontext.Logger(ctx).Warnf("Cannot get receipt of %s: %v", txHash, err)
		}

		select {
		case <-waitCtx.Done():
			return ErrConfirmTimeout
		case <-ticker.C:
		}
	}
}

func (c *blockchainCaller) GetReceipt(ctx context.Context, txHash string) (bool, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return false, ErrTxNotFound
		}

		return false, err
	}

	return receipt.Status == ethtypes.ReceiptStatusSuccessful, nil
}

func (c *blockchainCaller) Close() {
	c.client.Close()
}
