package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var resetTracer = otel.Tracer("service/password_reset")

// resetPagePath is where the reset form lives on the hub origin.
const resetPagePath = "/reset/reset.html"

// PasswordResetService sends password-reset emails.
type PasswordResetService struct {
	identity port.IdentityProvider
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewPasswordResetService creates a password reset service.
func NewPasswordResetService(identity port.IdentityProvider, metrics *observability.Metrics, logger *zap.Logger) *PasswordResetService {
	return &PasswordResetService{identity: identity, metrics: metrics, logger: logger}
}

// ResetRedirect picks the link target for the reset email: an explicit
// RESET_REDIRECT_TO wins, then APP_ORIGIN, then the caller's origin.
func ResetRedirect(explicit, appOrigin, requestOrigin string) string {
	if explicit != "" {
		return explicit
	}
	origin := appOrigin
	if origin == "" {
		origin = requestOrigin
	}
	return strings.TrimRight(origin, "/") + resetPagePath
}

// RequestReset asks the provider to email a reset link. The answer is the
// same whether or not the address exists: provider rejections are only
// logged. Transport failures are reported as server_error.
func (s *PasswordResetService) RequestReset(ctx context.Context, email, redirectTo string) error {
	ctx, span := resetTracer.Start(ctx, "PasswordResetService.RequestReset")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.NewError(domain.CodeMissingFields, "")
	}

	err := s.identity.Recover(ctx, email, redirectTo)
	if err == nil {
		s.logger.Info("password reset requested", observability.Email(email))
		return nil
	}

	var up *domain.ErrUpstream
	if errors.As(err, &up) {
		s.logger.Warn("password reset rejected by provider",
			observability.Email(email),
			zap.Int("provider_status", up.Status),
			zap.String("detail", up.Detail()),
		)
		return nil
	}

	s.metrics.IncrExternalError("supabase")
	return domain.WrapError(domain.CodeServerError, err).WithStatus(http.StatusBadGateway)
}
