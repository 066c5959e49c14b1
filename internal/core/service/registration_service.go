package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// RegistrationService moves an account through
// Unregistered -> PendingVerification -> Verified.
type RegistrationService struct {
	store    ports.CredentialStore
	otp      *OtpService
	tokens   ports.TokenService
	hasher   ports.PasswordHasher
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewRegistrationService(
	store ports.CredentialStore,
	otp *OtpService,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	notifier ports.Notifier,
	log zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:    store,
		otp:      otp,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		log:      log,
	}
}

// Signup creates a pending account, or re-sends the code when the
// identifier belongs to an account that has not verified yet.
func (s *RegistrationService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if !in.Role.SelfAssignable() {
		return nil, fmt.Errorf("%w: role %q cannot be chosen at signup", domain.ErrValidation, in.Role)
	}

	existing, err := s.store.FindAccountByEmailOrPhone(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("signup: find account: %w: %w", domain.ErrInternal, err)
	}
	if existing != nil {
		return s.signupExisting(ctx, existing)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w: %w", domain.ErrInternal, err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with a concurrent signup for the same identifier.
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("signup: create account: %w: %w", domain.ErrInternal, err)
	}

	if err := s.issueAndSend(ctx, account); err != nil {
		return nil, err
	}

	token, err := s.tokens.SignAccess(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("signup: sign token: %w: %w", domain.ErrInternal, err)
	}

	s.log.Info().Str("account_id", account.ID).Str("role", string(account.Role)).Msg("account created")

	return &ports.SignupResult{
		Outcome:     ports.SignupCreated,
		Account:     account,
		AccessToken: token,
	}, nil
}

func (s *RegistrationService) signupExisting(ctx context.Context, account *domain.Account) (*ports.SignupResult, error) {
	rec, err := s.store.FindOtpByOwner(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("signup: find otp: %w: %w", domain.ErrInternal, err)
	}
	if rec != nil && rec.Verified {
		return nil, domain.ErrAccountExists
	}

	if err := s.issueAndSend(ctx, account); err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("signup for pending account, otp resent")
	return &ports.SignupResult{Outcome: ports.SignupOtpResent, Account: account}, nil
}

// ResendOtp regenerates the code for an existing account. A verified account
// drops back to pending until the new code is confirmed.
func (s *RegistrationService) ResendOtp(ctx context.Context, identifier string) error {
	account, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotFound
	}
	return s.issueAndSend(ctx, account)
}

// VerifyOtp confirms the account's code and opens a full session.
func (s *RegistrationService) VerifyOtp(ctx context.Context, identifier, code string) (*ports.SessionResult, error) {
	account, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.otp.Verify(ctx, account.ID, strings.TrimSpace(code)); err != nil {
		s.log.Debug().Err(err).Str("account_id", account.ID).Msg("otp verification failed")
		return nil, err
	}

	tokens, err := issuePair(s.tokens, account)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("account verified")
	return &ports.SessionResult{Account: account, Tokens: tokens}, nil
}

// issueAndSend persists a fresh code and dispatches it. A delivery failure
// fails the call even though the code is already stored.
func (s *RegistrationService) issueAndSend(ctx context.Context, account *domain.Account) error {
	rec, err := s.otp.Issue(ctx, account.ID)
	if err != nil {
		return err
	}

	msg := verificationMessage(account, rec, s.otp.ExpiryMinutes())
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("account_id", account.ID).Msg("failed to send verification code")
		return fmt.Errorf("send verification: %w: %w", domain.ErrInternal, err)
	}
	return nil
}

func (s *RegistrationService) findByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	email, phone := splitIdentifier(identifier)
	account, err := s.store.FindAccountByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return nil, fmt.Errorf("find account: %w: %w", domain.ErrInternal, err)
	}
	return account, nil
}

// issuePair mints the access + refresh tokens for a full session.
func issuePair(tokens ports.TokenService, account *domain.Account) (domain.TokenPair, error) {
	access, err := tokens.SignAccess(account.ID, account.Role)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access: %w: %w", domain.ErrInternal, err)
	}
	refresh, err := tokens.SignRefresh(account.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh: %w: %w", domain.ErrInternal, err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitIdentifier routes a login identifier to the email or phone lookup.
func splitIdentifier(identifier string) (email, phone string) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return normalizeEmail(identifier), ""
	}
	return "", identifier
}
