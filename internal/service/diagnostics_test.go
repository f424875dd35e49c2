package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

func TestProbeLedger_ReportsWhateverTheLedgerSaid(t *testing.T) {
	ledger := &fakeLedger{result: &domain.LedgerResult{Status: 403, Raw: "forbidden"}}
	svc := service.NewDiagnosticsService(ledger, observability.NewMetrics(), zap.NewNop())

	probe, err := svc.ProbeLedger(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !probe.OK || probe.Status != 403 || probe.Raw != "forbidden" || probe.Parsed != nil {
		t.Errorf("unexpected probe %+v", probe)
	}
	if !regexp.MustCompile(`^teste_\d+@gmail\.com$`).MatchString(ledger.license.Email) {
		t.Errorf("unexpected probe email %q", ledger.license.Email)
	}
}
