package handler

import (
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles everything the router dispatches to. A nil Diagnostics
// or Health is tolerated.
type Services struct {
	Registration  *service.RegistrationService
	Sessions      *service.SessionService
	Agent         *service.AgentProxyService
	Counter       *service.CounterService
	PasswordReset *service.PasswordResetService
	Diagnostics   *service.DiagnosticsService
	Health        *service.HealthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *config.Config, svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, domain.NewError(domain.CodeMethodNotAllowed, ""))
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not_found"})
	})

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svc.Health))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", registerHandler(cfg, svc.Registration, logger))
		r.Options("/register", preflightHandler)

		r.Post("/forgot-password", forgotPasswordHandler(cfg, svc.PasswordReset, logger))
		r.Options("/forgot-password", preflightHandler)

		r.Get("/contador", counterHandler(cfg, svc.Counter, logger))

		r.Get("/public-agent-config", publicAgentConfigHandler(cfg))
		r.Get("/public-supabase-config", publicSupabaseConfigHandler(cfg))

		// Protected: configuration first, then the session.
		r.Group(func(r chi.Router) {
			r.Use(RequireFeature(cfg, config.FeatureAgent, domain.CodeMissingEnv))
			r.Use(SessionMiddleware(svc.Sessions, logger))
			r.Post("/agent", agentHandler(svc.Agent, logger))
		})

		if cfg.EnableDiagnostics && svc.Diagnostics != nil {
			r.With(RequireFeature(cfg, config.FeatureDiagnostics, domain.CodeMissingSheetsEnv)).
				Post("/test-sheets", testSheetsHandler(svc.Diagnostics, logger))
		}
	})

	return r
}

// preflightHandler answers a bare OPTIONS (no CORS preflight headers) with 200.
func preflightHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ============================================================
// Health
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyzHandler probes the external dependencies. Degraded answers 503 so
// load balancers stop routing while Supabase or the ledger is down.
func readyzHandler(health *service.HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{Status: "healthy", Services: []domain.ServiceHealth{}})
			return
		}
		status := health.Check(r.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}
