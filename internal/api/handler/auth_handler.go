package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/errandly/identity-service/internal/api/metrics"
	"github.com/errandly/identity-service/internal/api/session"
	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

type AuthHandler struct {
	registration ports.RegistrationService
	login        ports.LoginService
	jar          *session.Jar
}

func NewAuthHandler(registration ports.RegistrationService, login ports.LoginService, jar *session.Jar) *AuthHandler {
	return &AuthHandler{registration: registration, login: login, jar: jar}
}

// Signup creates an account and sends its verification code. Signing up
// again with an unverified account resends the code.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Success      200   {object}  signupResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.registration.Signup(c.Request().Context(), ports.SignupInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		metrics.SignupsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.SignupsTotal.WithLabelValues(string(res.Outcome)).Inc()

	if res.Outcome == ports.SignupOtpResent {
		return c.JSON(http.StatusOK, signupResponse{
			Message: "account is pending verification, a new code has been sent",
			Outcome: string(res.Outcome),
		})
	}

	h.jar.SetAccess(c, res.AccessToken)
	return c.JSON(http.StatusCreated, signupResponse{
		Message:     "account created, check your email for the verification code",
		Outcome:     string(res.Outcome),
		Account:     res.Account,
		AccessToken: res.AccessToken,
	})
}

// ResendOtp issues a fresh verification code.
func (h *AuthHandler) ResendOtp(c echo.Context) error {
	var req identifierRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.registration.ResendOtp(c.Request().Context(), req.Identifier); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "verification code sent"})
}

// VerifyOtp marks the account verified and starts a session.
//
// @Summary      Verify OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyOtpRequest  true  "Identifier and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/otp/verify [post]
func (h *AuthHandler) VerifyOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.registration.VerifyOtp(c.Request().Context(), req.Identifier, req.Code)
	metrics.OtpVerificationsTotal.WithLabelValues(otpResult(err)).Inc()
	if err != nil {
		return err
	}

	h.jar.SetPair(c, res.Tokens)
	return c.JSON(http.StatusOK, sessionResponse{Account: res.Account})
}

// Login authenticates a verified account and sets both session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Email or phone number and password"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.login.Login(c.Request().Context(), req.Identifier, req.Password)
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	h.jar.SetPair(c, res.Tokens)
	return c.JSON(http.StatusOK, sessionResponse{Account: res.Account})
}

// Refresh rotates both cookies from the refresh cookie. On failure the
// cookies are left as they are.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refresh := h.jar.ReadRefresh(c)
	if refresh == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("endpoint", "failure").Inc()
		return domain.ErrUnauthorized
	}

	res, err := h.login.Refresh(c.Request().Context(), refresh)
	metrics.TokenRefreshesTotal.WithLabelValues("endpoint", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	h.jar.SetPair(c, res.Tokens)
	return c.JSON(http.StatusOK, sessionResponse{Account: res.Account})
}

// Logout clears the session cookies. Issued tokens stay valid until expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.jar.Clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	account, err := h.login.Me(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// GetAccount returns any account by id. Mounted behind RBAC(admin).
func (h *AuthHandler) GetAccount(c echo.Context) error {
	account, err := h.login.Me(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

func otpResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrOtpMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrOtpExpired):
		return "expired"
	case errors.Is(err, domain.ErrOtpNotFound), errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrForbidden):
		return "unverified"
	case errors.Is(err, domain.ErrUnauthorized):
		return "invalid_credentials"
	default:
		return "error"
	}
}
