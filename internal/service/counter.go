package service

import (
	"context"
	"strings"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var counterTracer = otel.Tracer("service/counter")

// TargetResolver maps an app id to its redirect target.
type TargetResolver func(app string) (string, bool)

// CounterService counts app tile clicks and resolves where to send them.
type CounterService struct {
	counter port.AccessCounter
	targets TargetResolver
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCounterService creates a counter service.
func NewCounterService(counter port.AccessCounter, targets TargetResolver, metrics *observability.Metrics, logger *zap.Logger) *CounterService {
	return &CounterService{counter: counter, targets: targets, metrics: metrics, logger: logger}
}

// Hit increments the counter for app and returns its target URL. Unknown
// apps are rejected before anything is incremented. A failed increment is
// logged and does not block the redirect.
func (s *CounterService) Hit(ctx context.Context, app string) (string, error) {
	ctx, span := counterTracer.Start(ctx, "CounterService.Hit")
	defer span.End()

	app = strings.TrimSpace(app)
	if app == "" {
		return "", domain.NewError(domain.CodeMissingApp, "")
	}
	target, ok := s.targets(app)
	if !ok {
		return "", domain.NewError(domain.CodeUnknownApp, "")
	}

	if err := s.counter.IncrementAccess(ctx, app); err != nil {
		s.metrics.IncrExternalError("supabase")
		s.logger.Warn("increment_access failed", zap.String("app", app), zap.Error(err))
	}
	s.metrics.IncrCounterHit(app)
	return target, nil
}
