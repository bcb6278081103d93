package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/punchamoorthee/rageshop/internal/api"
	"github.com/punchamoorthee/rageshop/internal/checkout"
	"github.com/punchamoorthee/rageshop/internal/config"
	"github.com/punchamoorthee/rageshop/internal/domain"
	"github.com/punchamoorthee/rageshop/internal/fulfillment"
	"github.com/punchamoorthee/rageshop/internal/payment"
	"github.com/punchamoorthee/rageshop/internal/store"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// ledger is what both backends provide.
type ledger interface {
	api.Store
	fulfillment.Store
	checkout.Houses
	PutEvent(ctx context.Context, e domain.Event) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("err", err))
		os.Exit(1)
	}
}

func newLogger(env string) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ledger, func(), error) {
	switch cfg.Backend {
	case config.BackendMemory:
		if cfg.Env == "production" {
			return nil, nil, fmt.Errorf("REPO_BACKEND=mem is for tests and local development only")
		}
		logger.Warn("using in-memory ledger; nothing survives a restart")
		return store.NewMemoryStore(), func() {}, nil
	default:
		pg, err := store.NewStore(ctx, cfg.DBSource, cfg.Schema)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// 1. Storage
	st, closeStore, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	for _, e := range store.DefaultEvents() {
		if err := st.PutEvent(ctx, e); err != nil {
			return fmt.Errorf("seed events: %w", err)
		}
	}

	// 2. Payment provider and core services
	stripe := payment.NewStripe(cfg.Stripe)
	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		logger.Warn("stripe keys missing; checkout and webhooks will fail")
	}
	engine := fulfillment.NewEngine(st, logger)
	initiator := checkout.NewInitiator(stripe, st, cfg.Packages, cfg.Currency, cfg.BaseURL, logger)

	// 3. HTTP
	publicDir := cfg.PublicDir
	if fi, err := os.Stat(publicDir); err != nil || !fi.IsDir() {
		logger.Warn("static directory not found, serving API only", slog.String("dir", publicDir))
		publicDir = ""
	}
	cookies := api.NewCookieStore(cfg.SessionSecret, cfg.Env == "production")
	h := api.NewHandler(st, initiator, stripe, engine, cookies, logger)
	router := h.Routes(api.NewRateLimiter(cfg.RatePerMinute, cfg.TrustedProxies...), publicDir)

	cors := handlers.CORS(
		handlers.AllowedOriginValidator(func(string) bool { return true }),
		handlers.AllowCredentials(),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-ID"}),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           cors(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Run. The engine outlives the server so in-flight requests can finish.
	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := engine.Run(engineCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting", slog.String("port", cfg.Port), slog.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopEngine()
		return err
	})
	return g.Wait()
}
