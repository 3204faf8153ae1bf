package eth

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/tuklasart/backend/config"
)

var RpcTimeOut = time.Second * 5

// EthClient wraps ethclient so the ledger gateway can be mocked in
// tests. Since public RPCs are often unstable, the default
// implementation keeps a list of endpoints and fails over between them.
type EthClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

type defaultEthClient struct {
	chain string
	rpcs  []string

	lock    sync.Mutex
	clients []*ethclient.Client
}

func NewEthClient(cfg config.EthConfigs) EthClient {
	return &defaultEthClient{
		chain: cfg.Chain,
		rpcs:  cfg.Rpcs,
	}
}

// execute runs f against each endpoint in order until one succeeds.
func (c *defaultEthClient) execute(ctx context.Context, f func(ctx context.Context, client *ethclient.Client) error) error {
	clients, err := c.getClients(ctx)
	if err != nil {
		return err
	}

	for _, client := range clients {
		callCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
		err = f(callCtx, client)
		cancel()
		if err == nil {
			return nil
		}
	}

	return err
}

func (c *defaultEthClient) getClients(ctx context.Context) ([]*ethclient.Client, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if len(c.clients) > 0 {
		return c.clients, nil
	}

	var lastErr error
	for _, rpc := range c.rpcs {
		dialCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
		client, err := ethclient.DialContext(dialCtx, rpc)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}

		c.clients = append(c.clients, client)
	}

	if len(c.clients) == 0 {
		return nil, lastErr
	}

	return c.clients, nil
}

func (c *defaultEthClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.execute(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		price, err = client.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

func (c *defaultEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.execute(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		nonce, err = client.PendingNonceAt(ctx, account)
		return err
	})
	return nonce, err
}

func (c *defaultEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	return c.execute(ctx, func(ctx context.Context, client *ethclient.Client) error {
		return client.SendTransaction(ctx, tx)
	})
}

func (c *defaultEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	var receipt *ethtypes.Receipt
	err := c.execute(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		receipt, err = client.TransactionReceipt(ctx, txHash)
		return err
	})
	return receipt, err
}

func (c *defaultEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.execute(ctx, func(ctx context.Context, client *ethclient.Client) error {
		var err error
		id, err = client.ChainID(ctx)
		return err
	})
	return id, err
}

func (c *defaultEthClient) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, client := range c.clients {
		client.Close()
	}
	c.clients = nil
}
