package nonce

import (
	"context"
	"errors"
	"time"

	"github.com/tuklasart/backend/pkg/xredis"
)

type redisRegistry struct {
	ttl    time.Duration
	client xredis.Client
}

// NewRedisRegistry returns a registry shared across processes. Expiry
// is delegated to the cache TTL.
func NewRedisRegistry(client xredis.Client, ttl time.Duration) *redisRegistry {
	return &redisRegistry{client: client, ttl: ttl}
}

func redisKey(address string) string {
	return "login_challenge:" + address
}

func (r *redisRegistry) Issue(ctx context.Context, address string) (Challenge, error) {
	challenge, err := newChallenge(address)
	if err != nil {
		return Challenge{}, err
	}

	if err := r.client.SetObj(ctx, redisKey(address), challenge, r.ttl); err != nil {
		return Challenge{}, err
	}

	return challenge, nil
}

// Consume relies on GETDEL so retrieval and invalidation are a single
// atomic operation even with multiple api replicas.
func (r *redisRegistry) Consume(ctx context.Context, address string) (Challenge, error) {
	var challenge Challenge
	err := r.client.GetDelObj(ctx, redisKey(address), &challenge)
	if err != nil {
		if errors.Is(err, xredis.ErrNil) {
			return Challenge{}, ErrNoChallenge
		}

		return Challenge{}, err
	}

	return challenge, nil
}

func (r *redisRegistry) Expire(ctx context.Context, address string) error {
	return r.client.Del(ctx, redisKey(address))
}
