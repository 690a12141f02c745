// Package main is the entrypoint for the DVM job-processing daemon.
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

	"github.com/joho/godotenv"

	ai "github.com/OpenAgentsInc/commander-sub000/internal/ai/factory"
	"github.com/OpenAgentsInc/commander-sub000/internal/api"
	"github.com/OpenAgentsInc/commander-sub000/internal/api/handler"
	mw "github.com/OpenAgentsInc/commander-sub000/internal/api/middleware"
	"github.com/OpenAgentsInc/commander-sub000/internal/api/response"
	"github.com/OpenAgentsInc/commander-sub000/internal/cache"
	"github.com/OpenAgentsInc/commander-sub000/internal/config"
	"github.com/OpenAgentsInc/commander-sub000/internal/crypto"
	"github.com/OpenAgentsInc/commander-sub000/internal/dvm"
	"github.com/OpenAgentsInc/commander-sub000/internal/history"
	"github.com/OpenAgentsInc/commander-sub000/internal/lightning"
	"github.com/OpenAgentsInc/commander-sub000/internal/reconcile"
	"github.com/OpenAgentsInc/commander-sub000/internal/relay"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Best-effort; environment wins over .env.
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "ai_provider", cfg.AI.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return fmt.Errorf("create inference provider: %w", err)
	}
	slog.Info("inference provider initialized", "provider", provider.Name())

	identity, err := dvm.NewIdentity(cfg.DVM, defaultModelFor(cfg.AI))
	if err != nil {
		return fmt.Errorf("build identity: %w", err)
	}
	slog.Info("identity loaded", "pubkey", identity.PublicKey, "kinds", identity.SupportedKinds)

	relayClient, err := relay.NewPoolClient(ctx, cfg.DVM.Relays)
	if err != nil {
		return fmt.Errorf("create relay client: %w", err)
	}

	var memo cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		memo = redisCache
		slog.Info("redis connected")
	}

	wallet := lightning.NewHTTPClient(cfg.Lightning.BaseURL, cfg.Lightning.APIKey, cfg.Lightning.Timeout)
	cipher := crypto.NewNIP04Cipher(identity.PrivateKey)

	historySvc := history.NewService(relayClient, identity.PublicKey, identity.ResultKinds())
	reconciler := reconcile.NewLoop(historySvc, wallet, memo, cfg.DVM.ReconcileInterval, slog.Default())

	feedback := dvm.NewFeedbackPublisher(identity, relayClient, slog.Default())
	executor := dvm.NewExecutor(identity, relayClient, cipher, provider, wallet, feedback, slog.Default())
	listener := dvm.NewListener(identity, relayClient, executor, reconciler, slog.Default())

	controller, err := listener.Start(ctx)
	if err != nil {
		return fmt.Errorf("start listener: %w", err)
	}
	defer controller.Stop()

	router := api.NewRouter(api.Dependencies{
		RateLimit:      mw.NewRateLimit(memo, 60),
		HealthHandler:  healthHandler(identity.PublicKey),
		HistoryHandler: handler.JobHistory(historySvc),
		StatsHandler:   handler.JobStatistics(historySvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("status API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("daemon stopped gracefully")
	return nil
}

func defaultModelFor(cfg config.AIConfig) string {
	switch cfg.Provider {
	case "openai":
		return cfg.OpenAI.Model
	default:
		return cfg.Ollama.Model
	}
}

// healthHandler reports daemon liveness and the configured identity.
func healthHandler(pubkey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"status": "ok",
			"pubkey": pubkey,
		})
	}
}
