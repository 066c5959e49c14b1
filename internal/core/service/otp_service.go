package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
	"github.com/errandly/identity-service/internal/infrastructure/config"
)

const (
	defaultOtpLength        = 6
	maxOtpLength            = 18
	defaultOtpExpiryMinutes = 15
)

// OtpService issues and checks the single verification code each account owns.
type OtpService struct {
	store         ports.CredentialStore
	length        int
	expiryMinutes int
	now           func() time.Time
}

func NewOtpService(store ports.CredentialStore, cfg config.AuthConfig) *OtpService {
	s := &OtpService{
		store:         store,
		length:        cfg.OTPLength,
		expiryMinutes: cfg.OTPExpiryMinutes,
		now:           time.Now,
	}
	if s.length < 1 || s.length > maxOtpLength {
		s.length = defaultOtpLength
	}
	if s.expiryMinutes <= 0 {
		s.expiryMinutes = defaultOtpExpiryMinutes
	}
	return s
}

// ExpiryMinutes is the configured lifetime of an issued code.
func (s *OtpService) ExpiryMinutes() int {
	return s.expiryMinutes
}

// Generate draws uniformly from [10^(length-1), 10^length - 1] so the result
// always has exactly length digits.
func (s *OtpService) Generate(length int) (string, error) {
	if length < 1 || length > maxOtpLength {
		length = defaultOtpLength
	}

	lo := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	hi := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	span := new(big.Int).Sub(hi, lo)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return n.Add(n, lo).String(), nil
}

// Issue regenerates the owner's code with a single upsert. Any previous
// verification is reset.
func (s *OtpService) Issue(ctx context.Context, ownerID string) (*domain.OtpRecord, error) {
	code, err := s.Generate(s.length)
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().UTC().Add(time.Duration(s.expiryMinutes) * time.Minute)

	if err := s.store.UpsertOtpForOwner(ctx, ownerID, code, expiresAt); err != nil {
		return nil, fmt.Errorf("issue otp: %w: %w", domain.ErrInternal, err)
	}

	return &domain.OtpRecord{
		OwnerID:   ownerID,
		Code:      code,
		Verified:  false,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify accepts code iff it equals the stored code and the record has not
// expired. The record is kept so a later resend can start a new cycle.
func (s *OtpService) Verify(ctx context.Context, ownerID, code string) error {
	rec, err := s.store.FindOtpByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("verify otp: %w: %w", domain.ErrInternal, err)
	}
	if rec == nil {
		return domain.ErrOtpNotFound
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return domain.ErrOtpMismatch
	}
	if rec.ExpiredAt(s.now()) {
		return domain.ErrOtpExpired
	}

	if err := s.store.MarkOtpVerified(ctx, ownerID); err != nil {
		return fmt.Errorf("verify otp: %w: %w", domain.ErrInternal, err)
	}
	return nil
}
