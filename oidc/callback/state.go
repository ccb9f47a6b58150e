package callback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"
)

// ErrInvalidState is returned by a StateStore when a state value is unknown,
// already used, or expired. There's no way to know which for sure.
var ErrInvalidState = errors.New("unknown or expired state")

// StateStore issues and verifies the anti-forgery state values binding a
// callback to the login attempt that initiated it. A state value is
// single-use: it verifies successfully at most once.
type StateStore interface {
	// Generate issues a new state value scoped to one login attempt.
	Generate(ctx context.Context) (string, error)

	// Verify consumes the given state value. It returns nil exactly once
	// per generated value, and an error for everything else.
	Verify(ctx context.Context, state string) error
}

// DefaultStateTTL bounds how long a login attempt may stay parked at the
// provider before its state expires.
const DefaultStateTTL = 10 * time.Minute

// MemoryStateStore is an in-process StateStore. Suitable for single-node
// hosts; multi-node deployments need a store backed by whatever shared
// session storage the host already has.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
}

// NewMemoryStateStore creates a MemoryStateStore. A ttl of zero means
// DefaultStateTTL.
func NewMemoryStateStore(ttl time.Duration) *MemoryStateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &MemoryStateStore{
		states: map[string]time.Time{},
		ttl:    ttl,
	}
}

// Generate implements StateStore. Expired entries are swept on every call so
// abandoned login attempts don't accumulate; storage is bounded by the states
// issued within one TTL window.
func (s *MemoryStateStore) Generate(_ context.Context) (string, error) {
	const op = "MemoryStateStore.Generate"
	state, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("%s: unable to generate state: %w", op, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for issued, expiration := range s.states {
		if now.After(expiration) {
			delete(s.states, issued)
		}
	}
	s.states[state] = now.Add(s.ttl)
	return state, nil
}

// Verify implements StateStore. The state is consumed whether or not it
// verifies.
func (s *MemoryStateStore) Verify(_ context.Context, state string) error {
	const op = "MemoryStateStore.Verify"
	s.mu.Lock()
	expiration, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !ok || time.Now().After(expiration) {
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	}
	return nil
}
