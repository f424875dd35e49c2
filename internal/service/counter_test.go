package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

func targets(app string) (string, bool) {
	t, ok := map[string]string{"desktop": "https://example.com/desktop.zip"}[app]
	return t, ok
}

func TestCounterHit(t *testing.T) {
	tests := []struct {
		name           string
		app            string
		incrementErr   error
		want           domain.Code
		wantTarget     string
		wantIncrements int
	}{
		{"known app", "desktop", nil, "", "https://example.com/desktop.zip", 1},
		{"increment failure still redirects", "desktop", errors.New("rpc down"), "", "https://example.com/desktop.zip", 1},
		{"missing app", "  ", nil, domain.CodeMissingApp, "", 0},
		{"unknown app", "mystery", nil, domain.CodeUnknownApp, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := newFakeSupabase(nil)
			sb.incrementErr = tt.incrementErr
			svc := service.NewCounterService(sb, targets, observability.NewMetrics(), zap.NewNop())

			target, err := svc.Hit(context.Background(), tt.app)
			if tt.want != "" {
				if de := codeOf(t, err); de.Code != tt.want {
					t.Errorf("expected %s, got %s", tt.want, de.Code)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target != tt.wantTarget {
				t.Errorf("expected target %q, got %q", tt.wantTarget, target)
			}
			if sb.incrementCalls != tt.wantIncrements {
				t.Errorf("expected %d increments, got %d", tt.wantIncrements, sb.incrementCalls)
			}
		})
	}
}
