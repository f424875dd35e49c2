package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"go.uber.org/zap"
)

func TestResetRedirect(t *testing.T) {
	tests := []struct {
		explicit, appOrigin, reqOrigin, want string
	}{
		{"https://x/custom", "https://app", "https://req", "https://x/custom"},
		{"", "https://app", "https://req", "https://app/reset/reset.html"},
		{"", "https://app/", "", "https://app/reset/reset.html"},
		{"", "", "https://req", "https://req/reset/reset.html"},
	}
	for _, tt := range tests {
		if got := service.ResetRedirect(tt.explicit, tt.appOrigin, tt.reqOrigin); got != tt.want {
			t.Errorf("ResetRedirect(%q,%q,%q) = %q, want %q", tt.explicit, tt.appOrigin, tt.reqOrigin, got, tt.want)
		}
	}
}

func TestRequestReset(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		err        error
		want       domain.Code
		wantStatus int
	}{
		{"ok", "a@b.com", nil, "", 0},
		{"unknown email looks the same", "nobody@b.com", &domain.ErrUpstream{Status: 400, Message: "User not found"}, "", 0},
		{"provider 5xx still answers ok", "a@b.com", &domain.ErrUpstream{Status: 500}, "", 0},
		{"missing email", " ", nil, domain.CodeMissingFields, 0},
		{"transport failure", "a@b.com", &domain.ErrExternalService{Service: "supabase/recover", Err: errors.New("dial")}, domain.CodeServerError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := newFakeSupabase(nil)
			sb.recoverErr = tt.err
			svc := service.NewPasswordResetService(sb, observability.NewMetrics(), zap.NewNop())

			err := svc.RequestReset(context.Background(), tt.email, "https://app/reset/reset.html")
			if tt.want == "" {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				if sb.lastRedirect != "https://app/reset/reset.html" {
					t.Errorf("redirect not forwarded: %q", sb.lastRedirect)
				}
				return
			}
			de := codeOf(t, err)
			if de.Code != tt.want || de.Status != tt.wantStatus {
				t.Errorf("expected %s/%d, got %s/%d", tt.want, tt.wantStatus, de.Code, de.Status)
			}
		})
	}
}
