package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/api/metrics"
	"github.com/errandly/identity-service/internal/api/session"
	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// PrincipalKey is the echo context key holding the domain.Principal.
const PrincipalKey = "principal"

type accountFinder interface {
	FindAccountByID(ctx context.Context, id string) (*domain.Account, error)
}

// Gateway authenticates the request from a bearer token or the access
// cookie. When the access token is missing or no longer valid it falls back
// to the refresh cookie, mints a new access token and overwrites the access
// cookie before calling next. The refresh cookie is never rewritten here.
func Gateway(tokens ports.TokenService, accounts accountFinder, jar *session.Jar, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := accessToken(c, jar); raw != "" {
				if claims, err := tokens.Verify(raw, domain.TokenAccess); err == nil {
					c.Set(PrincipalKey, domain.Principal{ID: claims.Subject, Role: claims.Role})
					return next(c)
				}
			}

			principal, access, err := silentRefresh(c.Request().Context(), tokens, accounts, jar.ReadRefresh(c))
			metrics.TokenRefreshesTotal.WithLabelValues("gateway", metrics.Result(err)).Inc()
			if err != nil {
				return err
			}

			jar.SetAccess(c, access)
			log.Debug().Str("account_id", principal.ID).Msg("access token refreshed")
			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

func silentRefresh(ctx context.Context, tokens ports.TokenService, accounts accountFinder, refresh string) (domain.Principal, string, error) {
	if refresh == "" {
		return domain.Principal{}, "", domain.ErrUnauthorized
	}
	claims, err := tokens.Verify(refresh, domain.TokenRefresh)
	if err != nil {
		return domain.Principal{}, "", domain.ErrUnauthorized
	}

	account, err := accounts.FindAccountByID(ctx, claims.Subject)
	if err != nil {
		return domain.Principal{}, "", fmt.Errorf("gateway: reload account: %w: %w", domain.ErrInternal, err)
	}
	if account == nil {
		return domain.Principal{}, "", domain.ErrUnauthorized
	}

	access, err := tokens.SignAccess(account.ID, account.Role)
	if err != nil {
		return domain.Principal{}, "", fmt.Errorf("gateway: sign access: %w: %w", domain.ErrInternal, err)
	}
	return domain.Principal{ID: account.ID, Role: account.Role}, access, nil
}

// accessToken prefers the Authorization header over the cookie.
func accessToken(c echo.Context, jar *session.Jar) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return jar.ReadAccess(c)
}

// PrincipalFrom returns the principal attached by Gateway.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(domain.Principal)
	return p, ok && p.ID != ""
}
