package ports

import "github.com/errandly/identity-service/internal/core/domain"

// TokenService signs and verifies stateless session tokens.
type TokenService interface {
	SignAccess(subject string, role domain.Role) (string, error)
	SignRefresh(subject string) (string, error)
	SignTemp(subject string, payload map[string]string) (string, error)
	// Verify checks signature, expiry and that the token carries the expected
	// type. Any failure is domain.ErrInvalidToken.
	Verify(token string, expected domain.TokenType) (*domain.Claims, error)
	GenerateOpaque(n int) (string, error)
}
