package workflow_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/resilience"
	"github.com/boddenberg/hub-avance-go/internal/infra/workflow"

	"go.uber.org/zap"
)

func TestForward_RelaysBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p domain.WorkflowPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.ChatInput != "oi" || p.SessionID != "sess_1" || p.Email != "a@b.com" {
			t.Errorf("unexpected payload %+v", p)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"output":"olá"}`))
	}))
	defer srv.Close()

	c := workflow.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("wf"), zap.NewNop())
	reply, err := c.Forward(context.Background(), domain.WorkflowPayload{ChatInput: "oi", SessionID: "sess_1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(reply.Body) != `{"output":"olá"}` {
		t.Errorf("body altered: %q", reply.Body)
	}
	if reply.ContentType != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", reply.ContentType)
	}
}

func TestForward_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"workflow not active"}`))
	}))
	defer srv.Close()

	c := workflow.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("wf-404"), zap.NewNop())
	_, err := c.Forward(context.Background(), domain.WorkflowPayload{ChatInput: "oi"})

	var up *domain.ErrUpstream
	if !errors.As(err, &up) {
		t.Fatalf("expected ErrUpstream, got %T %v", err, err)
	}
	if up.Status != http.StatusNotFound || up.Body != `{"message":"workflow not active"}` {
		t.Errorf("unexpected upstream error %+v", up)
	}
}

func TestForward_OversizedReplyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write(bytes.Repeat([]byte("a"), 5<<20))
	}))
	defer srv.Close()

	c := workflow.NewClient(srv.Client(), srv.URL, resilience.NewCircuitBreaker("wf-big"), zap.NewNop())
	reply, err := c.Forward(context.Background(), domain.WorkflowPayload{ChatInput: "oi"})

	var up *domain.ErrUpstream
	if !errors.As(err, &up) {
		t.Fatalf("expected ErrUpstream, got %T %v (reply %d bytes)", err, err, replyLen(reply))
	}
	if up.Service != "n8n" || !strings.Contains(up.Message, "exceeds") {
		t.Errorf("unexpected upstream error %+v", up)
	}
}

func replyLen(r *domain.WorkflowReply) int {
	if r == nil {
		return 0
	}
	return len(r.Body)
}

func TestForward_TransportFailure(t *testing.T) {
	c := workflow.NewClient(&http.Client{Timeout: time.Second}, "http://127.0.0.1:1",
		resilience.NewCircuitBreaker("wf-down"), zap.NewNop())

	_, err := c.Forward(context.Background(), domain.WorkflowPayload{ChatInput: "oi"})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %T %v", err, err)
	}
}
