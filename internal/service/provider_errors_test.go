package service_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/service"
)

func TestClassifySignupError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       domain.Code
		wantStatus int
	}{
		{"error_code user_already_exists", &domain.ErrUpstream{Status: 422, Code: "user_already_exists"}, domain.CodeEmailExists, 0},
		{"legacy msg", &domain.ErrUpstream{Status: 400, Message: "User already registered"}, domain.CodeEmailExists, 0},
		{"weak_password code", &domain.ErrUpstream{Status: 422, Code: "weak_password"}, domain.CodeWeakPassword, 0},
		{"weak password msg", &domain.ErrUpstream{Status: 422, Message: "Password should contain at least one character of each"}, domain.CodeWeakPassword, 0},
		{"429", &domain.ErrUpstream{Status: 429}, domain.CodeRateLimited, 0},
		{"email rate code", &domain.ErrUpstream{Status: 400, Code: "over_email_send_rate_limit"}, domain.CodeRateLimited, 0},
		{"validation 4xx keeps status", &domain.ErrUpstream{Status: 422, Code: "validation_failed", Message: "bad email"}, domain.CodeAuthError, 422},
		{"5xx maps to 502", &domain.ErrUpstream{Status: 500, Body: "oops"}, domain.CodeAuthError, http.StatusBadGateway},
		{"non upstream", errors.New("dial tcp"), domain.CodeAuthError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := service.ClassifySignupError(tt.err)
			if de.Code != tt.want {
				t.Errorf("expected %s, got %s", tt.want, de.Code)
			}
			if de.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, de.Status)
			}
		})
	}
}

func TestClassifySignupError_DefaultDetail(t *testing.T) {
	de := service.ClassifySignupError(&domain.ErrUpstream{Status: 418})
	if de.Detail != "signup_failed" {
		t.Errorf("expected fallback detail, got %q", de.Detail)
	}
}
