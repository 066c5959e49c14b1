package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

const (
	purposeKey           = "purpose"
	purposePasswordReset = "password_reset"
	passwordStampKey     = "pwd"
)

// PasswordResetService exchanges an emailed opaque link token for a
// short-lived temp token, and the temp token for a new password.
type PasswordResetService struct {
	store    ports.CredentialStore
	resets   ports.ResetTokenStore
	tokens   ports.TokenService
	hasher   ports.PasswordHasher
	outbox   ports.MessageQueue
	linkBase string
	linkTTL  time.Duration
	log      zerolog.Logger
}

func NewPasswordResetService(
	store ports.CredentialStore,
	resets ports.ResetTokenStore,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	outbox ports.MessageQueue,
	linkBase string,
	linkTTL time.Duration,
	log zerolog.Logger,
) *PasswordResetService {
	if linkTTL <= 0 {
		linkTTL = 30 * time.Minute
	}
	return &PasswordResetService{
		store:    store,
		resets:   resets,
		tokens:   tokens,
		hasher:   hasher,
		outbox:   outbox,
		linkBase: linkBase,
		linkTTL:  linkTTL,
		log:      log,
	}
}

// RequestReset mails a reset link when the identifier is known. Unknown
// identifiers succeed silently so callers cannot probe for accounts.
func (s *PasswordResetService) RequestReset(ctx context.Context, identifier string) error {
	email, phone := splitIdentifier(identifier)
	account, err := s.store.FindAccountByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return fmt.Errorf("request reset: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return nil
	}

	token, err := s.tokens.GenerateOpaque(0)
	if err != nil {
		return fmt.Errorf("request reset: generate token: %w: %w", domain.ErrInternal, err)
	}
	if err := s.resets.Save(ctx, token, account.ID, s.linkTTL); err != nil {
		return fmt.Errorf("request reset: save token: %w: %w", domain.ErrInternal, err)
	}

	s.outbox.Enqueue(passwordResetMessage(account, s.resetLink(token)))
	s.log.Info().Str("account_id", account.ID).Msg("password reset requested")
	return nil
}

// ConfirmReset consumes the link token. It can be redeemed once. The temp
// token it returns is stamped with the current password hash, so it stops
// verifying as soon as the password changes.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, opaqueToken string) (string, error) {
	accountID, err := s.resets.Consume(ctx, opaqueToken)
	if err != nil {
		return "", fmt.Errorf("confirm reset: %w: %w", domain.ErrInternal, err)
	}
	if accountID == "" {
		return "", domain.ErrInvalidToken
	}

	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("confirm reset: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return "", domain.ErrInvalidToken
	}

	temp, err := s.tokens.SignTemp(account.ID, map[string]string{
		purposeKey:       purposePasswordReset,
		passwordStampKey: passwordStamp(account.PasswordHash),
	})
	if err != nil {
		return "", fmt.Errorf("confirm reset: sign temp: %w: %w", domain.ErrInternal, err)
	}
	return temp, nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.Verify(resetToken, domain.TokenTemp)
	if err != nil || claims.Payload[purposeKey] != purposePasswordReset {
		return domain.ErrInvalidToken
	}

	account, err := s.store.FindAccountByID(ctx, claims.Subject)
	if err != nil {
		return fmt.Errorf("reset password: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return domain.ErrInvalidToken
	}
	stamp := claims.Payload[passwordStampKey]
	if stamp == "" || subtle.ConstantTimeCompare([]byte(stamp), []byte(passwordStamp(account.PasswordHash))) != 1 {
		return domain.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w: %w", domain.ErrInternal, err)
	}
	if err := s.store.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("reset password: update: %w: %w", domain.ErrInternal, err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("password reset")
	return nil
}

// passwordStamp is a short digest of a password hash, safe to carry in a
// token payload.
func passwordStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

func (s *PasswordResetService) resetLink(token string) string {
	u, err := url.Parse(s.linkBase)
	if err != nil {
		return s.linkBase + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
