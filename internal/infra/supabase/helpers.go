package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/infra/resilience"

	"go.uber.org/zap"
)

// maxBodyBytes caps how much of a Supabase response is read.
const maxBodyBytes = 1 << 20

type request struct {
	method string
	url    string
	apikey string
	// bearer defaults to apikey when empty.
	bearer string
	prefer string
	body   any
}

type response struct {
	status int
	body   []byte
}

func (c *Client) restURL(path string) string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
}

func (c *Client) authURL(path string) string {
	return fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)
}

// send performs one HTTP round trip. Only transport failures are returned
// as errors; any status code is a successful send.
func (c *Client) send(ctx context.Context, r request) (*response, error) {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", r.method, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, err
	}

	bearer := r.bearer
	if bearer == "" {
		bearer = r.apikey
	}
	req.Header.Set("apikey", r.apikey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.prefer != "" {
		req.Header.Set("Prefer", r.prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", r.method),
			zap.String("url", redactQuery(req)),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", r.method),
			zap.String("url", redactQuery(req)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", domain.Truncate(string(raw), domain.MaxDetailLen)),
		)
	} else {
		c.logger.Debug("supabase: request OK",
			zap.String("method", r.method),
			zap.String("url", redactQuery(req)),
			zap.Int("status", resp.StatusCode),
		)
	}

	return &response{status: resp.StatusCode, body: raw}, nil
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// check converts a non-2xx response into *domain.ErrUpstream.
func (r *response) check(service string) error {
	if r.ok() {
		return nil
	}
	return upstreamError(service, r)
}

// upstreamError parses the GoTrue/PostgREST error envelope. GoTrue uses
// error_code + msg; PostgREST uses code + message; older GoTrue releases
// send error + error_description.
func upstreamError(service string, r *response) *domain.ErrUpstream {
	e := &domain.ErrUpstream{Service: service, Status: r.status, Body: string(r.body)}

	var envelope map[string]any
	if json.Unmarshal(r.body, &envelope) != nil {
		return e
	}
	e.Code = firstString(envelope, "error_code", "code", "error")
	e.Message = firstString(envelope, "msg", "message", "error_description", "error")
	return e
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// readWithRetry runs an idempotent read through the breaker with retries.
// 4xx answers are permanent: retrying them cannot help and must not trip
// the breaker.
func (c *Client) readWithRetry(ctx context.Context, service string, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return permanentIfClientError(fn())
		})
		return nil, permanentIfClientError(err)
	})
	return classify(service, err)
}

// writeOnce runs a non-idempotent call through the breaker exactly once.
func (c *Client) writeOnce(ctx context.Context, service string, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, permanentIfClientError(fn())
	})
	return classify(service, err)
}

// sendOnce runs a call exactly once outside the breaker. Compensations use
// it: an open circuit must not stop an orphaned Account from being removed.
func (c *Client) sendOnce(service string, fn func() error) error {
	return classify(service, fn())
}

func permanentIfClientError(err error) error {
	var up *domain.ErrUpstream
	if errors.As(err, &up) && up.Status >= 400 && up.Status < 500 {
		return resilience.Permanent(err)
	}
	return err
}

// classify leaves upstream answers as *domain.ErrUpstream and wraps
// everything else (transport, open circuit, context) as ErrExternalService.
func classify(service string, err error) error {
	if err == nil {
		return nil
	}
	var up *domain.ErrUpstream
	if errors.As(err, &up) {
		return up
	}
	return &domain.ErrExternalService{Service: service, Err: err}
}

// redactQuery keeps query strings (which may carry emails or redirect
// targets) out of the logs.
func redactQuery(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
