package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/errandly/identity-service/internal/core/ports"
)

type PasswordHandler struct {
	service ports.PasswordResetService
}

func NewPasswordHandler(service ports.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{service: service}
}

// Forgot always answers 202 so the response does not reveal whether the
// identifier belongs to an account.
func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req identifierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.RequestReset(c.Request().Context(), req.Identifier); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{
		Message: "if the account exists, a reset link has been sent",
	})
}

// Confirm redeems the emailed link token for a short-lived reset token.
func (h *PasswordHandler) Confirm(c echo.Context) error {
	var req confirmResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	temp, err := h.service.ConfirmReset(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, confirmResetResponse{ResetToken: temp})
}

func (h *PasswordHandler) Reset(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.Request().Context(), req.ResetToken, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}
