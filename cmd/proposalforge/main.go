package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	pfhttp "github.com/Strob0t/ProposalForge/internal/adapter/http"
	pfnats "github.com/Strob0t/ProposalForge/internal/adapter/nats"
	"github.com/Strob0t/ProposalForge/internal/adapter/natskv"
	pfotel "github.com/Strob0t/ProposalForge/internal/adapter/otel"
	"github.com/Strob0t/ProposalForge/internal/adapter/postgres"
	"github.com/Strob0t/ProposalForge/internal/adapter/ristretto"
	"github.com/Strob0t/ProposalForge/internal/adapter/tiered"
	"github.com/Strob0t/ProposalForge/internal/config"
	"github.com/Strob0t/ProposalForge/internal/logger"
	"github.com/Strob0t/ProposalForge/internal/middleware"
	"github.com/Strob0t/ProposalForge/internal/port/cache"
	"github.com/Strob0t/ProposalForge/internal/resilience"
	"github.com/Strob0t/ProposalForge/internal/secrets"
	"github.com/Strob0t/ProposalForge/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"auth_enabled", cfg.Auth.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := pfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := pfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Secrets ---

	vault, err := secrets.NewVault(secrets.EnvLoader(cfg.Auth.JWTSecretEnv))
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	if cfg.Auth.Enabled {
		if _, err := vault.Require(cfg.Auth.JWTSecretEnv); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		slog.Info("jwt secret loaded", "key", cfg.Auth.JWTSecretEnv, "value", vault.Redacted(cfg.Auth.JWTSecretEnv))
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer func() {
		slog.Info("l1 cache closed", "hit_ratio", l1.HitRatio())
		l1.Close()
	}()

	var (
		queue     *pfnats.Queue
		prefCache cache.Cache = l1
		idemCache cache.Cache
	)
	if cfg.NATS.URL != "" {
		queue, err = pfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		slog.Info("nats connected", "url", cfg.NATS.URL)

		l2, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("l2 cache: %w", err)
		}
		prefCache = tiered.New(l1, natskv.New(l2), cfg.Cache.PreferencesTTL)

		idem, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency store: %w", err)
		}
		idemCache = natskv.New(idem)
	} else {
		slog.Warn("nats disabled: events, shared cache and idempotency are off")
	}

	// --- Services ---

	store := postgres.NewStore(pool)
	prefSvc := service.NewPreferencesService(store, prefCache, cfg.Cache.PreferencesTTL)
	units := service.NewUnitInventory(store)
	adjustSvc := service.NewAdjustmentService(store, prefSvc, units)
	proposalSvc := service.NewProposalService(store, prefSvc, service.NewContactResolver(store), units, metrics)
	authSvc := service.NewAuthService(&cfg.Auth, vault)

	handlers := &pfhttp.Handlers{
		Proposals:   proposalSvc,
		Preferences: prefSvc,
		Adjustments: adjustSvc,
		DB:          pool,
	}
	if queue != nil {
		proposalSvc.SetEventPublisher(queue, resilience.NewBreaker("events", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		handlers.Queue = queue
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate)
	router := pfhttp.NewRouter(pfhttp.RouterConfig{
		Server:         cfg.Server,
		ServiceName:    cfg.OTEL.ServiceName,
		Verifier:       authSvc,
		AuthEnabled:    cfg.Auth.Enabled,
		RateLimiter:    limiter,
		Idempotency:    idemCache,
		IdempotencyTTL: cfg.Idempotency.TTL,
	}, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error { return reloadOnHangup(gctx, vault) })

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

// reloadOnHangup re-reads secrets on SIGHUP until ctx is done. A failed
// reload keeps the previous values.
func reloadOnHangup(ctx context.Context, v *secrets.Vault) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			if err := v.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
				continue
			}
			slog.Info("secrets reloaded")
		}
	}
}
