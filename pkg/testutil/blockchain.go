package testutil

import (
	"context"
	"fmt"
)

// MockBlockchainCaller fakes the chain gateway. Unset function fields
// fall back to a successful call.
type MockBlockchainCaller struct {
	MintArtworkFunc func(ctx context.Context, contractID int64, ownerAddress string) (string, error)
	GetReceiptFunc  func(ctx context.Context, txHash string) (bool, error)
}

func (m *MockBlockchainCaller) MintArtwork(
	ctx context.Context, contractID int64, ownerAddress string,
) (string, error) {
	if m.MintArtworkFunc != nil {
		return m.MintArtworkFunc(ctx, contractID, ownerAddress)
	}

	return fmt.Sprintf("0xmint%d", contractID), nil
}

func (m *MockBlockchainCaller) GetReceipt(ctx context.Context, txHash string) (bool, error) {
	if m.GetReceiptFunc != nil {
		return m.GetReceiptFunc(ctx, txHash)
	}

	return true, nil
}

func (m *MockBlockchainCaller) Close() {}
