package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var diagnosticsTracer = otel.Tracer("service/diagnostics")

// DiagnosticsService exercises the ledger end to end with a throwaway record.
type DiagnosticsService struct {
	ledger  port.LicenseLedger
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewDiagnosticsService creates a diagnostics service.
func NewDiagnosticsService(ledger port.LicenseLedger, metrics *observability.Metrics, logger *zap.Logger) *DiagnosticsService {
	return &DiagnosticsService{ledger: ledger, metrics: metrics, logger: logger, now: time.Now}
}

// ProbeLedger upserts a license for teste_<unix-ms>@gmail.com and reports
// exactly what the ledger answered, whatever the status.
func (s *DiagnosticsService) ProbeLedger(ctx context.Context) (*domain.LedgerProbe, error) {
	ctx, span := diagnosticsTracer.Start(ctx, "DiagnosticsService.ProbeLedger")
	defer span.End()

	probeID := uuid.NewString()
	now := s.now()
	email := fmt.Sprintf("teste_%d@gmail.com", now.UnixMilli())

	res, err := s.ledger.UpsertLicense(ctx, domain.License{
		Email:      email,
		Status:     domain.LicenseActive,
		MaxDevices: 1,
		CreatedAt:  now,
	})
	if err != nil {
		s.metrics.IncrExternalError("ledger")
		s.logger.Error("ledger probe failed", zap.String("probe_id", probeID), zap.Error(err))
		return nil, domain.WrapError(domain.CodeServerError, err)
	}

	span.SetAttributes(attribute.String("probe.id", probeID), attribute.Int("ledger.status", res.Status))
	s.logger.Info("ledger probe finished",
		zap.String("probe_id", probeID),
		zap.Int("status", res.Status),
		zap.Bool("accepted", res.OK()),
	)

	return &domain.LedgerProbe{
		OK:     true,
		Status: res.Status,
		Raw:    res.Raw,
		Parsed: res.Parsed,
	}, nil
}
