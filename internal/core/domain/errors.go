package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

// ErrInvalidToken is returned for every token verification failure. Malformed,
// badly signed, expired and wrong-type tokens are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

var (
	ErrOtpNotFound = errors.New("otp not found")
	ErrOtpMismatch = errors.New("otp does not match")
	ErrOtpExpired  = errors.New("otp expired")
)

// Refinements carrying a client-facing reason. errors.Is matches both the
// refinement and its class.
var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrAccountExists      = fmt.Errorf("account already exists, please log in: %w", ErrConflict)
	ErrAccountUnverified  = fmt.Errorf("verify your email first: %w", ErrForbidden)
)
