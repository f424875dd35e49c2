package handler

import (
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

// testSheetsHandler upserts a throwaway license and returns the ledger's
// raw answer. Mounted only with ENABLE_DIAGNOSTICS=true.
func testSheetsHandler(svc *service.DiagnosticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/test-sheets")
		defer span.End()

		probe, err := svc.ProbeLedger(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, probe)
	}
}
