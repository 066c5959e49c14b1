package password

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher hashes passwords with bcrypt. Hashing is CPU bound, so
// concurrent calls are capped at GOMAXPROCS.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports false on mismatch, on a malformed hash and when ctx is done
// before a slot frees up.
func (h *BcryptHasher) Verify(ctx context.Context, hash, plain string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
