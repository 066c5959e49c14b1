package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/api/handler"
	"github.com/errandly/identity-service/internal/api/middleware"
	"github.com/errandly/identity-service/internal/api/session"
	"github.com/errandly/identity-service/internal/core/domain"
	"github.com/errandly/identity-service/internal/core/ports"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log           zerolog.Logger
	Jar           *session.Jar
	Tokens        ports.TokenService
	Store         ports.CredentialStore
	Registration  ports.RegistrationService
	Login         ports.LoginService
	PasswordReset ports.PasswordResetService
	HealthChecks  map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// HTTP metrics live in their own registry so a router can be built more
	// than once per process; /metrics serves it next to the default one.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: httpMetrics,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Registration, d.Login, d.Jar)
	passwordHandler := handler.NewPasswordHandler(d.PasswordReset)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)
	gateway := middleware.Gateway(d.Tokens, d.Store, d.Jar, d.Log)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/otp", authHandler.ResendOtp)
	auth.POST("/otp/verify", authHandler.VerifyOtp)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me, gateway)

	auth.POST("/password/forgot", passwordHandler.Forgot)
	auth.POST("/password/reset/confirm", passwordHandler.Confirm)
	auth.POST("/password/reset", passwordHandler.Reset)

	// --- Admin routes ---
	admin := e.Group("/admin", gateway, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/accounts/:id", authHandler.GetAccount)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{httpMetrics, prometheus.DefaultGatherer},
	}))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
