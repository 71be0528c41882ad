// @title                      EventHub API
// @version                    1.0
// @description                Authentication and access control for the university event platform.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/unievents/eventhub-api/internal/api"
	"github.com/unievents/eventhub-api/internal/api/handler"
	"github.com/unievents/eventhub-api/internal/core/ports"
	"github.com/unievents/eventhub-api/internal/core/service"
	"github.com/unievents/eventhub-api/internal/infrastructure/config"
	"github.com/unievents/eventhub-api/internal/infrastructure/db/memory"
	redisstore "github.com/unievents/eventhub-api/internal/infrastructure/db/redis"
	"github.com/unievents/eventhub-api/internal/infrastructure/mailer"
	natspub "github.com/unievents/eventhub-api/internal/infrastructure/messaging/nats"
	"github.com/unievents/eventhub-api/internal/infrastructure/queue"
	"github.com/unievents/eventhub-api/internal/infrastructure/security"
	"github.com/unievents/eventhub-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	srvLog := logger.Component("server")

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, st.close)
	health := []handler.Dependency{st.health}

	hasher, err := security.NewPasswordHasher(security.HasherOptions{
		Algorithm:  security.Algorithm(cfg.Auth.PasswordHasher),
		BcryptCost: cfg.Auth.BcryptCost,
	})
	if err != nil {
		return err
	}
	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// --- Login throttling and identity cache ---
	var (
		limiter    ports.LoginLimiter
		identities ports.IdentityLookup = st.users
		cache      ports.IdentityCache
	)
	if cfg.Redis.Enabled {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		health = append(health, handler.Dependency{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})

		limiter = redisstore.NewLoginLimiter(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		identityCache := redisstore.NewIdentityCache(rdb, st.users, cfg.Auth.IdentityCacheTTL, log)
		identities = identityCache
		cache = identityCache
	} else {
		memLimiter := memory.NewLoginLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
		go memLimiter.Run(ctx, cfg.Auth.LoginRateWindow)
		limiter = memLimiter
	}

	// --- Audit trail ---
	sinks := []ports.AuditSink{service.NewLogSink(log)}
	if st.audit != nil {
		sinks = append(sinks, st.audit)
	}
	if cfg.Audit.NATSURL != "" {
		pub, err := natspub.Connect(cfg.Audit.NATSURL, log)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = pub.Close() })
		health = append(health, handler.Dependency{Name: "nats", Ping: pub.Ping})
		sinks = append(sinks, pub)
	}
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, service.NewAuditTrail(log, sinks...), log)
	dispatcher.Start(ctx)
	closers = append(closers, dispatcher.Close)

	// --- Mail ---
	var mail ports.Mailer = mailer.NewLogMailer(log)
	if cfg.Mail.MailerSendAPIKey != "" {
		ms, err := mailer.NewMailerSend(cfg.Mail.MailerSendAPIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
		if err != nil {
			return err
		}
		mail = ms
	}

	// --- Services ---
	authSvc := service.NewAuthService(st.users, hasher, tokens, log,
		service.WithLoginLimiter(limiter),
		service.WithAuditRecorder(dispatcher),
		service.WithMailer(mail),
	)
	if cfg.Bootstrap.AdminEmail != "" {
		admin, created, err := authSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		srvLog.Info().Str("user_id", admin.ID).Bool("created", created).Msg("bootstrap admin ready")
	}
	verifier := service.NewVerifier(tokens, identities, log)
	userSvc := service.NewUserService(st.users, cache, dispatcher, log)

	e := api.NewRouter(api.Deps{
		Auth:     authSvc,
		Users:    userSvc,
		Verifier: verifier,
		Health:   health,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		srvLog.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		srvLog.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	srvLog.Info().Msg("server stopped")
	return nil
}
