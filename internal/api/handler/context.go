package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/errandly/identity-service/internal/api/middleware"
	"github.com/errandly/identity-service/internal/core/domain"
)

// ctxPrincipal returns the principal attached by the gateway. A missing
// principal means the route was mounted without the gateway.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// bindAndValidate decodes the body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}
