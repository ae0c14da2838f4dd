package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/credentials"
	"github.com/geocoder89/storefront/internal/db"
	"github.com/geocoder89/storefront/internal/domain/user"
	httpx "github.com/geocoder89/storefront/internal/http"
	"github.com/geocoder89/storefront/internal/http/handlers"
	"github.com/geocoder89/storefront/internal/notifications"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/ratelimit"
	"github.com/geocoder89/storefront/internal/repo/memory"
	"github.com/geocoder89/storefront/internal/repo/postgres"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const defaultSessionSecret = "dev-secret-change-me"

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if cfg.Env == "prod" && cfg.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in prod")
	}

	startCtx, cancel := config.WithTimeout(15 * time.Second)
	defer cancel()

	shutdownTracer, err := observability.InitTracer(startCtx, observability.TracerConfig{
		ServiceName: "storefront-auth",
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	hasher := security.NewHasher(cfg.BcryptCost)
	policy := user.LockoutPolicy{Threshold: cfg.LockoutThreshold, Duration: cfg.LockoutDuration}
	readyChecks := map[string]handlers.Pinger{}

	// user directory
	var dir credentials.UserDirectory
	if cfg.DBURL != "" {
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := db.Migrate(startCtx, pool); err != nil {
			return err
		}

		dir = postgres.NewUsersRepo(pool, prom, hasher, policy)
		readyChecks["postgres"] = pool.Ping
		log.Info("user directory: postgres")
	} else {
		dir = memory.NewUsersRepo(hasher, memory.WithLockoutPolicy(policy))
		log.Warn("user directory: in memory, accounts are lost on restart")
	}

	codec, err := auth.NewCodec(cfg.TokenFormat, cfg.SessionSecret)
	if err != nil {
		return err
	}
	cookies := auth.NewCookieManager()

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{Timeout: 2 * time.Second},
	)

	svc := credentials.NewService(dir, codec, cookies,
		credentials.WithNotifier(notifier),
		credentials.WithMetrics(prom),
		credentials.WithLogger(log),
		credentials.WithBaseURL(cfg.BaseURL),
	)

	err = credentials.EnsureAdmin(startCtx, dir, credentials.AdminAccount{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
	}, log)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// access gate providers, local session first
	providers := auth.Chain{auth.NewSessionProvider(codec, cookies)}
	if cfg.ManagedAuthURL != "" {
		providers = append(providers, auth.NewManagedAuthProvider(auth.ManagedAuthConfig{
			BaseURL: cfg.ManagedAuthURL,
			AnonKey: cfg.ManagedAuthAnonKey,
		}, &http.Client{Timeout: 3 * time.Second}, log))
		log.Info("managed auth provider enabled", "url", cfg.ManagedAuthURL)
	}

	// rate limiting
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := ratelimit.NewRedisClient(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(startCtx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiting fails open until it recovers", "err", err)
		}

		limiter = ratelimit.NewRedisLimiter(rdb, "storefront:ratelimit:", cfg.RateLimitAuth, cfg.RateLimitWindow)
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow)
	}

	var shuttingDown atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Cfg:          cfg,
		Log:          log,
		Service:      svc,
		Provider:     providers,
		Limiter:      limiter,
		Prom:         prom,
		Gatherer:     reg,
		ReadyChecks:  readyChecks,
		ShuttingDown: shuttingDown.Load,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-stop:
	}

	log.Info("server shutting down")
	shuttingDown.Store(true)

	ctx, cancelShutdown := config.WithTimeout(10 * time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	if err := shutdownTracer(ctx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("shutdown complete")
	return nil
}
