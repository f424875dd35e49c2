package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/config"
	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const accountKey contextKey = "account"

// RequireFeature answers code (with the missing variable names) while the
// feature's configuration is incomplete.
func RequireFeature(cfg *config.Config, feature config.Feature, code domain.Code) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if missing := cfg.Missing(feature); len(missing) > 0 {
				writeError(w, missingEnv(code, missing))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionMiddleware verifies the Bearer token with the identity provider and
// injects the Account into the request context.
func SessionMiddleware(sessions *service.SessionService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := service.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				logger.Warn("auth: missing token", zap.String("path", r.URL.Path))
				writeError(w, domain.NewError(domain.CodeNoToken, ""))
				return
			}

			account, err := sessions.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("auth: session rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				handleServiceError(w, err, logger)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFromContext returns the verified Account, or nil.
func AccountFromContext(ctx context.Context) *domain.Account {
	v, _ := ctx.Value(accountKey).(*domain.Account)
	return v
}
