package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/cache"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("not-the-provider-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newSessions(sb *fakeSupabase, ttl time.Duration) (*service.SessionService, *observability.Metrics) {
	metrics := observability.NewMetrics()
	c := cache.New[*domain.Account](ttl)
	return service.NewSessionService(sb, c, metrics, zap.NewNop()), metrics
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":     "abc",
		"bearer abc":     "abc",
		"BEARER  abc ":   "abc",
		"Basic abc":      "",
		"Bearer":         "",
		"":               "",
		"abc":            "",
		"Token Bearer x": "",
	}
	for header, want := range tests {
		if got := service.BearerToken(header); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestVerify_NoToken(t *testing.T) {
	svc, _ := newSessions(newFakeSupabase(nil), time.Minute)

	_, err := svc.Verify(context.Background(), "")
	if de := codeOf(t, err); de.Code != domain.CodeNoToken {
		t.Fatalf("expected no_token, got %s", de.Code)
	}
}

func TestVerify_ExpiredJWTSkipsProvider(t *testing.T) {
	sb := newFakeSupabase(nil)
	sb.getUser = &domain.Account{ID: "user-1", Email: "a@b.com"}
	svc, _ := newSessions(sb, time.Minute)

	_, err := svc.Verify(context.Background(), signedToken(t, time.Now().Add(-time.Minute)))
	if de := codeOf(t, err); de.Code != domain.CodeInvalidSession {
		t.Fatalf("expected invalid_session, got %s", de.Code)
	}
	if sb.getUserCalls != 0 {
		t.Error("expired token must be rejected locally")
	}
}

func TestVerify_ProviderRejection(t *testing.T) {
	sb := newFakeSupabase(nil)
	sb.getUserErr = &domain.ErrUpstream{Status: 401, Message: "invalid JWT"}
	svc, _ := newSessions(sb, time.Minute)

	_, err := svc.Verify(context.Background(), "opaque-token")
	de := codeOf(t, err)
	if de.Code != domain.CodeInvalidSession {
		t.Fatalf("expected invalid_session, got %s", de.Code)
	}
	if de.Fields["provider_status"] != 401 || de.Detail != "invalid JWT" {
		t.Errorf("unexpected error %+v", de)
	}

	// failures are never cached
	_, _ = svc.Verify(context.Background(), "opaque-token")
	if sb.getUserCalls != 2 {
		t.Errorf("expected 2 provider calls, got %d", sb.getUserCalls)
	}
}

func TestVerify_ProviderUnavailable(t *testing.T) {
	sb := newFakeSupabase(nil)
	sb.getUserErr = &domain.ErrExternalService{Service: "supabase/user", Err: errors.New("dial")}
	svc, _ := newSessions(sb, time.Minute)

	_, err := svc.Verify(context.Background(), "opaque-token")
	de := codeOf(t, err)
	if de.Code != domain.CodeServerError || de.Status != http.StatusBadGateway {
		t.Fatalf("expected server_error/502, got %s/%d", de.Code, de.Status)
	}
}

func TestVerify_CachesSuccess(t *testing.T) {
	sb := newFakeSupabase(nil)
	sb.getUser = &domain.Account{ID: "user-1", Email: "a@b.com"}
	svc, metrics := newSessions(sb, time.Minute)
	token := signedToken(t, time.Now().Add(time.Hour))

	for i := 0; i < 3; i++ {
		acc, err := svc.Verify(context.Background(), token)
		if err != nil || acc.Email != "a@b.com" {
			t.Fatalf("verify %d: %v %v", i, acc, err)
		}
	}
	if sb.getUserCalls != 1 {
		t.Errorf("expected 1 provider call, got %d", sb.getUserCalls)
	}
	if metrics.SessionCacheCount("hit") != 2 || metrics.SessionCacheCount("miss") != 1 {
		t.Errorf("unexpected cache metrics hit=%v miss=%v",
			metrics.SessionCacheCount("hit"), metrics.SessionCacheCount("miss"))
	}
}

func TestVerify_CacheDisabled(t *testing.T) {
	sb := newFakeSupabase(nil)
	sb.getUser = &domain.Account{ID: "user-1", Email: "a@b.com"}
	svc, _ := newSessions(sb, 0)

	_, _ = svc.Verify(context.Background(), "opaque-token")
	_, _ = svc.Verify(context.Background(), "opaque-token")
	if sb.getUserCalls != 2 {
		t.Errorf("expected every call to reach the provider, got %d", sb.getUserCalls)
	}
}
