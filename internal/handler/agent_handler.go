package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Agent proxy: POST /api/agent
// ============================================================

// agentHandler runs behind RequireFeature and SessionMiddleware. On success
// the workflow's answer is relayed byte-for-byte.
func agentHandler(svc *service.AgentProxyService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/agent")
		defer span.End()

		account := AccountFromContext(ctx)
		if account == nil {
			writeError(w, domain.NewError(domain.CodeNoToken, ""))
			return
		}

		var req domain.AgentRequest
		if derr := decodeJSON(w, r, &req, false); derr != nil {
			writeError(w, derr)
			return
		}
		span.SetAttributes(attribute.String("chat.session_id", req.SessionID))

		reply, err := svc.Forward(ctx, account, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", reply.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(reply.Body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(reply.Body); err != nil {
			logger.Debug("agent: client went away", zap.Error(err))
		}
	}
}
