// Package ledger is the client for the Google Apps Script webhook that keeps
// the spreadsheet-backed license ledger.
package ledger

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

var tracer = otel.Tracer("ledger")

// timestampLayout is JavaScript's Date.toISOString format, which the
// spreadsheet script parses.
const timestampLayout = "2006-01-02T15:04:05.000Z"

const maxBodyBytes = 64 << 10

type upsertPayload struct {
	Action     string `json:"action"`
	Secret     string `json:"secret"`
	Email      string `json:"email"`
	Status     string `json:"status"`
	MaxDevices int    `json:"max_devices"`
	CreatedAt  string `json:"created_at"`
}

// Client posts license writes to the Apps Script web app.
type Client struct {
	httpClient *http.Client
	url        string
	secret     string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a ledger client.
func NewClient(httpClient *http.Client, url, secret string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Client {
	return &Client{httpClient: httpClient, url: url, secret: secret, cb: cb, logger: logger}
}

// UpsertLicense writes lic to the ledger. It is never retried. Any HTTP
// answer, 2xx or not, is returned as a LedgerResult for the caller to judge
// with OK(); only transport failures are errors.
func (c *Client) UpsertLicense(ctx context.Context, lic domain.License) (*domain.LedgerResult, error) {
	ctx, span := tracer.Start(ctx, "Ledger.UpsertLicense")
	defer span.End()

	payload := upsertPayload{
		Action:     "upsert_license",
		Secret:     c.secret,
		Email:      lic.Email,
		Status:     string(lic.Status),
		MaxDevices: lic.MaxDevices,
		CreatedAt:  lic.CreatedAt.UTC().Format(timestampLayout),
	}

	out, err := c.cb.Execute(func() (any, error) {
		res, err := c.post(ctx, payload)
		if err != nil {
			return nil, err
		}
		if res.Status >= 500 {
			// Counted against the breaker but still handed back.
			return res, fmt.Errorf("ledger returned status %d", res.Status)
		}
		return res, nil
	})

	if res, ok := out.(*domain.LedgerResult); ok && res != nil {
		span.SetAttributes(attribute.Int("ledger.status", res.Status), attribute.Bool("ledger.ok", res.OK()))
		return res, nil
	}
	return nil, &domain.ErrExternalService{Service: "ledger", Err: err}
}

func (c *Client) post(ctx context.Context, payload upsertPayload) (*domain.LedgerResult, error) {
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
		c.logger.Error("ledger: request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read ledger response: %w", err)
	}

	res := &domain.LedgerResult{Status: resp.StatusCode, Raw: string(raw)}
	var parsed map[string]any
	if json.Unmarshal(raw, &parsed) == nil {
		res.Parsed = parsed
	}

	if !res.OK() {
		c.logger.Warn("ledger: write rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", domain.Truncate(res.Raw, domain.MaxDetailLen)),
		)
	}
	return res, nil
}

// Ping checks that the web app answers at all. Apps Script serves an error
// page for GET on a POST-only script, so any status below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: "ledger", Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= 500 {
		return &domain.ErrUpstream{Service: "ledger", Status: resp.StatusCode}
	}
	return nil
}
