package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/infrastructure/config"
)

const defaultOpaqueBytes = 48

// sessionClaims is the JWT body: {sub, role, type, exp, iat} plus an
// optional payload for temp tokens.
type sessionClaims struct {
	Role    domain.Role       `json:"role,omitempty"`
	Type    domain.TokenType  `json:"type"`
	Payload map[string]string `json:"payload,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	tempTTL    time.Duration
	now        func() time.Time
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	s := &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		tempTTL:    cfg.TempTTL,
		now:        time.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = 15 * time.Minute
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 30 * 24 * time.Hour
	}
	if s.tempTTL <= 0 {
		s.tempTTL = 15 * time.Minute
	}
	return s
}

func (s *TokenService) SignAccess(subject string, role domain.Role) (string, error) {
	return s.sign(sessionClaims{Role: role, Type: domain.TokenAccess}, subject, s.accessTTL)
}

func (s *TokenService) SignRefresh(subject string) (string, error) {
	return s.sign(sessionClaims{Type: domain.TokenRefresh}, subject, s.refreshTTL)
}

func (s *TokenService) SignTemp(subject string, payload map[string]string) (string, error) {
	return s.sign(sessionClaims{Type: domain.TokenTemp, Payload: payload}, subject, s.tempTTL)
}

func (s *TokenService) sign(claims sessionClaims, subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses token and checks it was minted as expected. The cause of a
// failure is never surfaced to the caller.
func (s *TokenService) Verify(token string, expected domain.TokenType) (*domain.Claims, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Type != expected || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Claims{
		Subject:   claims.Subject,
		Role:      claims.Role,
		Type:      claims.Type,
		Payload:   claims.Payload,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GenerateOpaque returns n random bytes hex encoded. n <= 0 selects 48.
func (s *TokenService) GenerateOpaque(n int) (string, error) {
	if n <= 0 {
		n = defaultOpaqueBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
