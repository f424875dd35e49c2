package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/observability"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// SessionService resolves bearer tokens to Accounts. The identity provider
// is the only authority; the local JWT check only rejects tokens that are
// already expired, and the cache only remembers successes.
type SessionService struct {
	identity port.IdentityProvider
	cache    port.Cache[*domain.Account]
	metrics  *observability.Metrics
	logger   *zap.Logger
	parser   *jwt.Parser
	now      func() time.Time
}

// NewSessionService creates a session service. cache may be disabled.
func NewSessionService(identity port.IdentityProvider, cache port.Cache[*domain.Account], metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{
		identity: identity,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		parser:   jwt.NewParser(),
		now:      time.Now,
	}
}

// BearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively; anything else yields "".
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Verify returns the Account behind token or a *domain.Error with code
// no_token, invalid_session or server_error.
func (s *SessionService) Verify(ctx context.Context, token string) (*domain.Account, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Verify")
	defer span.End()

	if token == "" {
		return nil, domain.NewError(domain.CodeNoToken, "")
	}

	exp, err := s.expiry(token)
	if err != nil {
		span.SetAttributes(attribute.String("session.result", "expired"))
		return nil, domain.NewError(domain.CodeInvalidSession, err.Error())
	}

	key := tokenKey(token)
	if s.cache.Enabled() {
		if acc, ok := s.cache.Get(key); ok {
			s.metrics.IncrSessionCache("hit")
			span.SetAttributes(attribute.String("session.result", "cache_hit"))
			return acc, nil
		}
		s.metrics.IncrSessionCache("miss")
	}

	acc, err := s.identity.GetUser(ctx, token)
	if err != nil {
		var up *domain.ErrUpstream
		if errors.As(err, &up) && up.Status < 500 {
			span.SetAttributes(attribute.String("session.result", "rejected"))
			return nil, domain.NewError(domain.CodeInvalidSession, up.Detail()).
				With("provider_status", up.Status)
		}
		s.metrics.IncrExternalError("supabase")
		s.logger.Error("session verification unavailable", zap.Error(err))
		return nil, domain.WrapError(domain.CodeServerError, err).WithStatus(http.StatusBadGateway)
	}
	if acc.Email == "" {
		return nil, domain.NewError(domain.CodeInvalidSession, "account has no email")
	}

	s.cache.SetUntil(key, acc, exp)
	span.SetAttributes(attribute.String("session.result", "verified"))
	return acc, nil
}

var errTokenExpired = errors.New("token expired")

// expiry reads exp from a JWT without verifying its signature. Tokens that
// are not JWTs, or carry no exp, return a zero time and no error.
func (s *SessionService) expiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, nil
	}
	if !exp.After(s.now()) {
		return time.Time{}, errTokenExpired
	}
	return exp.Time, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
