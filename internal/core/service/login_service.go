package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// LoginService issues sessions to verified accounts and renews them from
// refresh tokens. Logout is purely client side: tokens stay valid until
// they expire.
type LoginService struct {
	store  ports.CredentialStore
	tokens ports.TokenService
	hasher ports.PasswordHasher
	log    zerolog.Logger
}

func NewLoginService(store ports.CredentialStore, tokens ports.TokenService, hasher ports.PasswordHasher, log zerolog.Logger) *LoginService {
	return &LoginService{store: store, tokens: tokens, hasher: hasher, log: log}
}

// Login returns ErrInvalidCredentials for both an unknown identifier and a
// wrong password, and ErrAccountUnverified for an account still pending.
func (s *LoginService) Login(ctx context.Context, identifier, password string) (*ports.SessionResult, error) {
	email, phone := splitIdentifier(identifier)
	account, err := s.store.FindAccountByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("login: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return nil, domain.ErrInvalidCredentials
	}

	rec, err := s.store.FindOtpByOwner(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("login: find otp: %w: %w", domain.ErrInternal, err)
	}
	if rec == nil || !rec.Verified {
		return nil, domain.ErrAccountUnverified
	}

	if !s.hasher.Verify(ctx, account.PasswordHash, password) {
		s.log.Warn().Str("account_id", account.ID).Msg("invalid password")
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := issuePair(s.tokens, account)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("account logged in")
	return &ports.SessionResult{Account: account, Tokens: tokens}, nil
}

// Refresh rotates the session from a refresh token. The account is reloaded
// so the new access token carries its current role.
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (*ports.SessionResult, error) {
	claims, err := s.tokens.Verify(refreshToken, domain.TokenRefresh)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	account, err := s.store.FindAccountByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("refresh: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return nil, domain.ErrUnauthorized
	}

	tokens, err := issuePair(s.tokens, account)
	if err != nil {
		return nil, err
	}
	return &ports.SessionResult{Account: account, Tokens: tokens}, nil
}

// Me loads the account behind an authenticated principal.
func (s *LoginService) Me(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("me: find account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}
	return account, nil
}
