package ports

import (
	"context"
	"time"

	"github.com/errandly/identity-service/internal/core/domain"
)

// CredentialStore is the persistence the auth core needs. Lookups return
// (nil, nil) when nothing matches.
type CredentialStore interface {
	FindAccountByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id string) (*domain.Account, error)
	// CreateAccount returns domain.ErrConflict when the email or phone number
	// is already taken. The store's unique constraints are the race guard.
	CreateAccount(ctx context.Context, account *domain.Account) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// UpsertOtpForOwner atomically replaces the owner's code, resets verified
	// to false and sets expiresAt, creating the record if absent.
	UpsertOtpForOwner(ctx context.Context, ownerID, code string, expiresAt time.Time) error
	FindOtpByOwner(ctx context.Context, ownerID string) (*domain.OtpRecord, error)
	MarkOtpVerified(ctx context.Context, ownerID string) error
}

// ResetTokenStore keeps short-lived opaque password-reset tokens.
type ResetTokenStore interface {
	Save(ctx context.Context, token, accountID string, ttl time.Duration) error
	// Consume returns the account id bound to token and removes it. An
	// unknown or already used token yields ("", nil).
	Consume(ctx context.Context, token string) (string, error)
}
