package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/infra/resilience"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var agentTracer = otel.Tracer("service/agent")

// DefaultReplyContentType is used when the workflow does not name one.
const DefaultReplyContentType = "text/plain; charset=utf-8"

// AgentProxyService relays an authenticated user's chat turn to the
// workflow engine.
type AgentProxyService struct {
	workflow port.WorkflowForwarder
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAgentProxyService creates an agent proxy service.
func NewAgentProxyService(workflow port.WorkflowForwarder, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *AgentProxyService {
	return &AgentProxyService{
		workflow: workflow,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

// Forward sends req on behalf of account. Extra client fields travel with
// the turn, but the email forwarded is always the verified account's,
// whatever the client sent.
func (s *AgentProxyService) Forward(ctx context.Context, account *domain.Account, req *domain.AgentRequest) (*domain.WorkflowReply, error) {
	ctx, span := agentTracer.Start(ctx, "AgentProxyService.Forward")
	defer span.End()

	if strings.TrimSpace(req.ChatInput) == "" {
		return nil, domain.NewError(domain.CodeMissingFields, "chatInput")
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		s.metrics.IncrAgentForward("rejected")
		return nil, domain.WrapError(domain.CodeServerError, err).WithStatus(http.StatusServiceUnavailable)
	}
	defer s.bulkhead.Release()

	start := time.Now()
	reply, err := s.workflow.Forward(ctx, domain.WorkflowPayload{
		ChatInput: req.ChatInput,
		SessionID: req.SessionID,
		Email:     account.Email,
		Extra:     req.Extra,
	})
	s.metrics.RecordRequestDuration("agent_forward", time.Since(start))

	if err != nil {
		s.metrics.IncrAgentForward("error")
		s.metrics.IncrExternalError("n8n")
		s.logger.Warn("agent forward failed",
			observability.Email(account.Email),
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		return nil, classifyForwardError(err)
	}

	if reply.ContentType == "" {
		reply.ContentType = DefaultReplyContentType
	}
	s.metrics.IncrAgentForward("ok")
	span.SetAttributes(attribute.Int("agent.reply_bytes", len(reply.Body)))
	return reply, nil
}

func classifyForwardError(err error) *domain.Error {
	var up *domain.ErrUpstream
	if errors.As(err, &up) {
		return domain.NewError(domain.CodeN8NError, up.Body).
			WithStatus(http.StatusBadGateway).
			With("upstream_status", up.Status)
	}
	var ext *domain.ErrExternalService
	if errors.As(err, &ext) {
		return domain.WrapError(domain.CodeN8NError, ext.Err).WithStatus(http.StatusBadGateway)
	}
	return domain.WrapError(domain.CodeServerError, err)
}
