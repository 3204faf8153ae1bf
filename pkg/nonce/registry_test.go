package nonce_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/pkg/nonce"
)

func TestMemoryRegistrySingleUse(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewMemoryRegistry(time.Minute)

	issued, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)
	require.Contains(t, issued.Message, issued.Nonce)

	consumed, err := registry.Consume(ctx, "0xabc")
	require.NoError(t, err)
	require.Equal(t, issued.Nonce, consumed.Nonce)

	_, err = registry.Consume(ctx, "0xabc")
	require.ErrorIs(t, err, nonce.ErrNoChallenge)
}

func TestMemoryRegistryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewMemoryRegistry(time.Minute)

	first, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)

	second, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)
	require.NotEqual(t, first.Nonce, second.Nonce)

	consumed, err := registry.Consume(ctx, "0xabc")
	require.NoError(t, err)
	require.Equal(t, second.Nonce, consumed.Nonce)
}

func TestMemoryRegistryExpiry(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewMemoryRegistry(time.Nanosecond)

	_, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = registry.Consume(ctx, "0xabc")
	require.ErrorIs(t, err, nonce.ErrNoChallenge)
}

func TestMemoryRegistryUnknownAddress(t *testing.T) {
	registry := nonce.NewMemoryRegistry(time.Minute)
	_, err := registry.Consume(context.Background(), "0xnever")
	require.ErrorIs(t, err, nonce.ErrNoChallenge)
}
