package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/handler"
	"github.com/boddenberg/hub-avance-go/internal/infra/cache"
	"github.com/boddenberg/hub-avance-go/internal/infra/ledger"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/infra/resilience"
	"github.com/boddenberg/hub-avance-go/internal/infra/supabase"
	"github.com/boddenberg/hub-avance-go/internal/infra/workflow"
	"github.com/boddenberg/hub-avance-go/internal/port"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Config (.env is loaded first, real env vars win) ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("session_cache_ttl", cfg.SessionCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Bool("diagnostics", cfg.EnableDiagnostics),
	)

	for _, f := range cfg.Unready() {
		logger.Warn("feature not configured", zap.String("feature", string(f)), zap.Strings("missing", cfg.Missing(f)))
	}
	if cfg.StrictConfig {
		if err := cfg.Validate(); err != nil {
			logger.Fatal("refusing to start with STRICT_CONFIG", zap.Error(err))
		}
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "hub-avance")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience: one breaker per external system ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		resilience.NewCircuitBreaker("supabase"),
		resilienceCfg,
		logger,
	)
	ledgerClient := ledger.NewClient(httpClient, cfg.SheetsWebAppURL, cfg.HubSecret,
		resilience.NewCircuitBreaker("ledger"), logger)
	workflowClient := workflow.NewClient(httpClient, cfg.N8NWebhookURL,
		resilience.NewCircuitBreaker("n8n"), logger)

	// --- Cache ---
	sessionCache := cache.New[*domain.Account](cfg.SessionCacheTTL)
	defer sessionCache.Close()

	// --- Services ---
	probes := map[string]port.Pinger{}
	if cfg.SupabaseURL != "" {
		probes["supabase"] = supabaseClient
	}
	if cfg.SheetsWebAppURL != "" {
		probes["ledger"] = ledgerClient
	}

	svcs := handler.Services{
		Registration: service.NewRegistrationService(supabaseClient, supabaseClient, ledgerClient,
			service.RegistrationConfig{
				SignupRedirectTo:      cfg.SignupRedirectTo,
				EnforcePasswordPolicy: cfg.EnforcePasswordPolicy,
				CompensationTimeout:   cfg.CompensationTimeout,
			}, metrics, logger),
		Sessions:      service.NewSessionService(supabaseClient, sessionCache, metrics, logger),
		Agent:         service.NewAgentProxyService(workflowClient, bulkhead, metrics, logger),
		Counter:       service.NewCounterService(supabaseClient, cfg.CounterTarget, metrics, logger),
		PasswordReset: service.NewPasswordResetService(supabaseClient, metrics, logger),
		Diagnostics:   service.NewDiagnosticsService(ledgerClient, metrics, logger),
		Health:        service.NewHealthService(probes, 5*time.Second),
	}

	// --- Router ---
	router := handler.NewRouter(cfg, svcs, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
