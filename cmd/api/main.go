package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/errandly/identity-service/internal/api"
	"github.com/errandly/identity-service/internal/api/handler"
	"github.com/errandly/identity-service/internal/api/session"
	"github.com/errandly/identity-service/internal/core/service"
	"github.com/errandly/identity-service/internal/infrastructure/config"
	mongodb "github.com/errandly/identity-service/internal/infrastructure/db/mongo"
	redisdb "github.com/errandly/identity-service/internal/infrastructure/db/redis"
	"github.com/errandly/identity-service/internal/infrastructure/notify"
	"github.com/errandly/identity-service/internal/infrastructure/password"
	"github.com/errandly/identity-service/internal/infrastructure/queue"
	"github.com/errandly/identity-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "identity-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	store := mongodb.NewCredentialStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes failed")
	}

	notifier, err := notify.New(cfg.SMTP, logger.Named("notifier"))
	if err != nil {
		log.Fatal().Err(err).Msg("notifier setup failed")
	}

	outbox := queue.NewOutbox(cfg.Outbox.Workers, cfg.Outbox.MaxAttempts, notifier, logger.Named("outbox"))
	outbox.Start(ctx)

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := service.NewTokenService(cfg.Auth)
	otp := service.NewOtpService(store, cfg.Auth)

	e := api.NewRouter(api.Deps{
		Log:           log,
		Jar:           session.NewJar(cfg.Production(), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Tokens:        tokens,
		Store:         store,
		Registration:  service.NewRegistrationService(store, otp, tokens, hasher, notifier, logger.Named("registration")),
		Login:         service.NewLoginService(store, tokens, hasher, logger.Named("login")),
		PasswordReset: service.NewPasswordResetService(store, redisdb.NewResetTokenStore(rdb), tokens, hasher, outbox, cfg.Reset.LinkBaseURL, cfg.Reset.TokenTTL, logger.Named("password_reset")),
		HealthChecks:  healthChecks(mongoClient, rdb),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func healthChecks(mc *mongo.Client, rdb *redis.Client) map[string]handler.Check {
	return map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mc.Ping(ctx, nil) },
		"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
}
