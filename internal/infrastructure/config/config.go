package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// devSecret is only acceptable outside production.
const devSecret = "dev-insecure-secret-change-me"

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth   AuthConfig
	Reset  ResetConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	Outbox OutboxConfig
}

// AuthConfig is assembled once at startup and shared read-only by the
// token and OTP services.
type AuthConfig struct {
	JWTSecret        string        `env:"AUTH_JWT_SECRET,         default=dev-insecure-secret-change-me"`
	AccessTTL        time.Duration `env:"AUTH_ACCESS_TTL,         default=15m"`
	RefreshTTL       time.Duration `env:"AUTH_REFRESH_TTL,        default=720h"`
	TempTTL          time.Duration `env:"AUTH_TEMP_TTL,           default=15m"`
	OTPLength        int           `env:"AUTH_OTP_LENGTH,         default=6"`
	OTPExpiryMinutes int           `env:"AUTH_OTP_EXPIRY_MINUTES, default=15"`
	BcryptCost       int           `env:"AUTH_BCRYPT_COST,        default=10"`
}

type ResetConfig struct {
	LinkBaseURL string        `env:"RESET_LINK_BASE_URL, default=http://localhost:3000/reset-password"`
	TokenTTL    time.Duration `env:"RESET_TOKEN_TTL,     default=30m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=identity"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SMTPConfig configures outbound mail. An empty Host selects the log notifier.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT,     default=587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM,     default=no-reply@errandly.local"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT,  default=10s"`
}

type OutboxConfig struct {
	Workers     int `env:"OUTBOX_WORKERS,      default=4"`
	MaxAttempts int `env:"OUTBOX_MAX_ATTEMPTS, default=5"`
}

// Production reports whether the service runs with production hardening
// (secure cookies, mandatory secret).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Validate rejects configurations the auth core cannot run safely with.
func (c *Config) Validate() error {
	if c.Production() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devSecret) {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must not be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 || c.Auth.TempTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.OTPLength < 1 || c.Auth.OTPLength > 18 {
		return fmt.Errorf("AUTH_OTP_LENGTH must be between 1 and 18, got %d", c.Auth.OTPLength)
	}
	if c.Auth.OTPExpiryMinutes <= 0 {
		return errors.New("AUTH_OTP_EXPIRY_MINUTES must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads and validates configuration from an arbitrary lookuper.
func LoadWith(l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
