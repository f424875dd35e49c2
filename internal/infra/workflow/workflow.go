// Package workflow forwards chat turns to the n8n webhook that produces the
// agent's answers.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("workflow")

// maxReplyBytes bounds a relayed answer.
const maxReplyBytes = 4 << 20

// Client posts chat payloads to the workflow webhook.
type Client struct {
	httpClient *http.Client
	url        string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a workflow client.
func NewClient(httpClient *http.Client, url string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Client {
	return &Client{httpClient: httpClient, url: url, cb: cb, logger: logger}
}

// Forward sends one chat turn and returns the upstream answer untouched.
// Non-2xx answers are *domain.ErrUpstream; transport failures and an open
// circuit are *domain.ErrExternalService. Forwards are not retried.
func (c *Client) Forward(ctx context.Context, payload domain.WorkflowPayload) (*domain.WorkflowReply, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Forward")
	defer span.End()

	out, err := c.cb.Execute(func() (any, error) {
		return c.post(ctx, payload)
	})
	if err != nil {
		if up, ok := err.(*domain.ErrUpstream); ok {
			span.SetAttributes(attribute.Int("workflow.status", up.Status))
			return nil, up
		}
		return nil, &domain.ErrExternalService{Service: "n8n", Err: err}
	}

	reply := out.(*domain.WorkflowReply)
	span.SetAttributes(attribute.Int("workflow.status", reply.Status), attribute.Int("workflow.bytes", len(reply.Body)))
	return reply, nil
}

func (c *Client) post(ctx context.Context, payload domain.WorkflowPayload) (*domain.WorkflowReply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("workflow: request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read workflow response: %w", err)
	}
	if len(raw) > maxReplyBytes {
		c.logger.Warn("workflow: reply too large", zap.Int("status", resp.StatusCode), zap.Int("limit", maxReplyBytes))
		msg := fmt.Sprintf("reply exceeds %d bytes", maxReplyBytes)
		return nil, &domain.ErrUpstream{Service: "n8n", Status: resp.StatusCode, Message: msg, Body: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("workflow: non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", domain.Truncate(string(raw), domain.MaxDetailLen)),
		)
		return nil, &domain.ErrUpstream{Service: "n8n", Status: resp.StatusCode, Body: string(raw)}
	}

	return &domain.WorkflowReply{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}
