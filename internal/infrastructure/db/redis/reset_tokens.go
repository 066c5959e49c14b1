package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore keeps password-reset link tokens until they are redeemed
// or expire.
// Key format: reset:<token>
type ResetTokenStore struct {
	client *redis.Client
}

func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

// Save binds token to accountID. An existing binding is never overwritten.
func (s *ResetTokenStore) Save(ctx context.Context, token, accountID string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, s.key(token), accountID, ttl).Result()
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	if !ok {
		return errors.New("save reset token: token already exists")
	}
	return nil
}

// Consume reads and deletes the binding in one step so a token is
// redeemable once.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	id, err := s.client.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return id, nil
}

func (s *ResetTokenStore) key(token string) string {
	return "reset:" + token
}
