package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Registration: POST /api/register
// ============================================================

func registerHandler(cfg *config.Config, svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/register")
		defer span.End()

		var req domain.RegisterRequest
		if derr := decodeJSON(w, r, &req, true); derr != nil {
			writeError(w, derr)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.CPF) == "" {
			writeError(w, domain.NewError(domain.CodeMissingFields, ""))
			return
		}

		if missing := cfg.Missing(config.FeatureRegister); len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingSupabaseEnv, missing))
			return
		}
		if missing := cfg.Missing(config.FeatureRegisterSheets); len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingSheetsEnv, missing))
			return
		}

		// Compensation runs detached with its own timeout, so only the
		// forward steps are bounded here.
		ctx, cancel := context.WithTimeout(ctx, cfg.RegistrationStepsBudget())
		defer cancel()

		resp, err := svc.Register(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Password reset: POST /api/forgot-password
// ============================================================

func forgotPasswordHandler(cfg *config.Config, svc *service.PasswordResetService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/forgot-password")
		defer span.End()

		var req domain.ForgotPasswordRequest
		if derr := decodeJSON(w, r, &req, false); derr != nil {
			writeError(w, derr)
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeError(w, domain.NewError(domain.CodeMissingFields, ""))
			return
		}
		if missing := cfg.Missing(config.FeaturePasswordReset); len(missing) > 0 {
			writeError(w, missingEnv(domain.CodeMissingSupabaseEnv, missing))
			return
		}

		redirectTo := service.ResetRedirect(cfg.ResetRedirectTo, cfg.AppOrigin, requestOrigin(r))
		if err := svc.RequestReset(ctx, req.Email, redirectTo); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.OKResponse{OK: true})
	}
}

// requestOrigin is the Origin header, or https://<host> when absent.
func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return o
	}
	return "https://" + r.Host
}
