package handler

import (
	"net/http"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

// counterHandler handles GET /api/contador?app=<id>: counts the click and
// redirects to the app.
func counterHandler(cfg *config.Config, svc *service.CounterService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/contador")
		defer span.End()

		app := strings.TrimSpace(r.URL.Query().Get("app"))
		if app == "" {
			writeError(w, domain.NewError(domain.CodeMissingApp, ""))
			return
		}
		if missing := cfg.Missing(config.FeatureCounter); len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingEnv, missing))
			return
		}

		target, err := svc.Hit(ctx, app)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
