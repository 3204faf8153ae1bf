package nonce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tuklasart/backend/pkg/crypto"
)

// ErrNoChallenge is returned when no live challenge exists for an
// address, either because none was issued, it expired, or it was
// already consumed.
var ErrNoChallenge = errors.New("no challenge issued for this address")

// Challenge is a single-use login challenge bound to a wallet address.
type Challenge struct {
	Address  string    `json:"address"`
	Nonce    string    `json:"nonce"`
	Message  string    `json:"message"`
	IssuedAt time.Time `json:"issued_at"`
}

// Registry stores at most one live challenge per address. Issuing a new
// challenge invalidates the previous one, and consuming removes the
// challenge regardless of whether verification later succeeds.
type Registry interface {
	Issue(ctx context.Context, address string) (Challenge, error)
	Consume(ctx context.Context, address string) (Challenge, error)
	Expire(ctx context.Context, address string) error
}

func newChallenge(address string) (Challenge, error) {
	n, err := crypto.GenerateRandomString()
	if err != nil {
		return Challenge{}, err
	}

	return Challenge{
		Address:  address,
		Nonce:    n,
		Message:  fmt.Sprintf("Welcome to Tuklas!\n\nSign this message to prove you own the wallet %s.\n\nNonce: %s", address, n),
		IssuedAt: time.Now(),
	}, nil
}

type memoryRegistry struct {
	ttl        time.Duration
	mutex      sync.Mutex
	challenges map[string]Challenge
}

// NewMemoryRegistry returns a process-local registry. A non-positive
// ttl disables expiry.
func NewMemoryRegistry(ttl time.Duration) *memoryRegistry {
	return &memoryRegistry{
		ttl:        ttl,
		challenges: make(map[string]Challenge),
	}
}

func (r *memoryRegistry) Issue(_ context.Context, address string) (Challenge, error) {
	challenge, err := newChallenge(address)
	if err != nil {
		return Challenge{}, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Last write wins, any previously issued challenge is replaced.
	r.challenges[address] = challenge
	return challenge, nil
}

func (r *memoryRegistry) Consume(_ context.Context, address string) (Challenge, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	challenge, ok := r.challenges[address]
	if !ok {
		return Challenge{}, ErrNoChallenge
	}

	delete(r.challenges, address)

	if r.ttl > 0 && time.Since(challenge.IssuedAt) > r.ttl {
		return Challenge{}, ErrNoChallenge
	}

	return challenge, nil
}

func (r *memoryRegistry) Expire(_ context.Context, address string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.challenges, address)
	return nil
}
