// Package supabase talks to Supabase: GoTrue for accounts and sessions,
// PostgREST for the profiles table and the access counter RPC.
package supabase

import (
	"context"
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase Auth and PostgREST APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	anonKey        string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client. baseURL must not end with a slash.
func NewClient(httpClient *http.Client, baseURL, anonKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		anonKey:        anonKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// Ping checks the GoTrue health endpoint. Used by /readyz.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	key := c.anonKey
	if key == "" {
		key = c.serviceRoleKey
	}
	return c.readWithRetry(ctx, "supabase/health", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodGet,
			url:    c.authURL("health"),
			apikey: key,
		})
		if err != nil {
			return err
		}
		return resp.check("supabase/health")
	})
}
