package nonce_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tuklasart/backend/pkg/nonce"
	"github.com/tuklasart/backend/pkg/xredis"
)

type fakeRedisClient struct {
	mutex sync.Mutex
	store map[string]string
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{store: make(map[string]string)}
}

func (c *fakeRedisClient) Exist(_ context.Context, key string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, ok := c.store[key]
	return ok, nil
}

func (c *fakeRedisClient) Del(_ context.Context, keys ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, key := range keys {
		delete(c.store, key)
	}
	return nil
}

func (c *fakeRedisClient) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store[key] = value
	return nil
}

func (c *fakeRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return c.Set(ctx, key, string(b), ttl)
}

func (c *fakeRedisClient) Get(_ context.Context, key string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.store[key]
	if !ok {
		return "", xredis.ErrNil
	}
	return s, nil
}

func (c *fakeRedisClient) GetObj(ctx context.Context, key string, v any) error {
	s, err := c.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}

func (c *fakeRedisClient) GetDel(_ context.Context, key string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s, ok := c.store[key]
	if !ok {
		return "", xredis.ErrNil
	}

	delete(c.store, key)
	return s, nil
}

func (c *fakeRedisClient) GetDelObj(ctx context.Context, key string, v any) error {
	s, err := c.GetDel(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}

func TestRedisRegistrySingleUse(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewRedisRegistry(newFakeRedisClient(), time.Minute)

	issued, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)
	require.Contains(t, issued.Message, issued.Nonce)

	consumed, err := registry.Consume(ctx, "0xabc")
	require.NoError(t, err)
	require.Equal(t, issued.Nonce, consumed.Nonce)

	_, err = registry.Consume(ctx, "0xabc")
	require.ErrorIs(t, err, nonce.ErrNoChallenge)
}

func TestRedisRegistryConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewRedisRegistry(newFakeRedisClient(), time.Minute)

	_, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)

	// Retrieval and invalidation happen in one GETDEL, so however many
	// replicas race, only one can observe the challenge.
	var wg sync.WaitGroup
	successes := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := registry.Consume(ctx, "0xabc"); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	require.Len(t, successes, 1)
}

func TestRedisRegistryLastWriteWins(t *testing.T) {
	ctx := context.Background()
	registry := nonce.NewRedisRegistry(newFakeRedisClient(), time.Minute)

	first, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)

	second, err := registry.Issue(ctx, "0xabc")
	require.NoError(t, err)
	require.NotEqual(t, first.Nonce, second.Nonce)

	consumed, err := registry.Consume(ctx, "0xabc")
	require.NoError(t, err)
	require.Equal(t, second.Nonce, consumed.Nonce)
}
