package handler

import "github.com/errandly/identity-service/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type signupRequest struct {
	FullName    string `json:"full_name"    validate:"required,max=120"`
	Email       string `json:"email"        validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,numeric,min=7,max=15"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
	Role        string `json:"role"         validate:"omitempty,oneof=customer vendor rider"`
}

type signupResponse struct {
	Message     string          `json:"message"`
	Outcome     string          `json:"outcome"`
	Account     *domain.Account `json:"account,omitempty"`
	AccessToken string          `json:"access_token,omitempty"`
}

type identifierRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type verifyOtpRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Code       string `json:"code"       validate:"required,numeric"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

type sessionResponse struct {
	Account *domain.Account `json:"account"`
}

type confirmResetRequest struct {
	Token string `json:"token" validate:"required"`
}

type confirmResetResponse struct {
	ResetToken string `json:"reset_token"`
}

type resetPasswordRequest struct {
	ResetToken string `json:"reset_token" validate:"required"`
	Password   string `json:"password"    validate:"required,min=8,max=72"`
}
