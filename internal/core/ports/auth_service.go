package ports

import (
	"context"

	"github.com/errandly/identity-service/internal/core/domain"
)

// SignupInput carries a new account's details as submitted by the client.
type SignupInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
	Role        domain.Role
}

// SignupOutcome tells the transport which branch of signup was taken.
type SignupOutcome string

const (
	SignupCreated   SignupOutcome = "created"
	SignupOtpResent SignupOutcome = "otp_resent"
)

// SignupResult is returned by a successful signup call. AccessToken is only
// set for SignupCreated.
type SignupResult struct {
	Outcome     SignupOutcome
	Account     *domain.Account
	AccessToken string
}

// SessionResult is a freshly minted session for an account.
type SessionResult struct {
	Account *domain.Account
	Tokens  domain.TokenPair
}

// RegistrationService drives an account from signup to verified.
type RegistrationService interface {
	Signup(ctx context.Context, in SignupInput) (*SignupResult, error)
	ResendOtp(ctx context.Context, identifier string) error
	VerifyOtp(ctx context.Context, identifier, code string) (*SessionResult, error)
}

// LoginService issues and renews sessions for verified accounts.
type LoginService interface {
	Login(ctx context.Context, identifier, password string) (*SessionResult, error)
	Refresh(ctx context.Context, refreshToken string) (*SessionResult, error)
	Me(ctx context.Context, accountID string) (*domain.Account, error)
}

// PasswordResetService implements the forgot/reset password flow.
type PasswordResetService interface {
	RequestReset(ctx context.Context, identifier string) error
	ConfirmReset(ctx context.Context, opaqueToken string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}
