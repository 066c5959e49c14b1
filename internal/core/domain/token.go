package domain

import "time"

// TokenType distinguishes the purpose a session token was minted for.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
	TokenTemp    TokenType = "temp"
)

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string
	Role      Role
	Type      TokenType
	Payload   map[string]string
	ExpiresAt time.Time
}

// TokenPair is what a successful login, OTP verification or refresh yields.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
