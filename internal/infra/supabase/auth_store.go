package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/hub-avance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// GoTrue: accounts, sessions, password recovery
// ============================================================

type signupBody struct {
	Email    string                `json:"email"`
	Password string                `json:"password"`
	Data     domain.SignupMetadata `json:"data"`
}

// signupResponse covers both GoTrue shapes: the bare user (email
// confirmation on) and {access_token, user} (autoconfirm on).
type signupResponse struct {
	domain.Account
	User *domain.Account `json:"user"`
}

// SignUp creates an Account with the anon key so GoTrue sends the
// confirmation email. It is never retried. Non-2xx answers come back as
// *domain.ErrUpstream with the provider's error code and message parsed.
// The returned Account may have an empty ID; callers decide what that means.
func (c *Client) SignUp(ctx context.Context, email, password string, meta domain.SignupMetadata, redirectTo string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	target := c.authURL("signup")
	if redirectTo != "" {
		target += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	var account *domain.Account
	err := c.writeOnce(ctx, "supabase/signup", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodPost,
			url:    target,
			apikey: c.anonKey,
			body:   signupBody{Email: email, Password: password, Data: meta},
		})
		if err != nil {
			return err
		}
		if err := resp.check("supabase/signup"); err != nil {
			return err
		}

		var out signupResponse
		if err := json.Unmarshal(resp.body, &out); err != nil {
			return fmt.Errorf("decode signup response: %w", err)
		}
		account = &out.Account
		if out.User != nil && out.User.ID != "" {
			account = out.User
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Bool("account.id_present", account.ID != ""))
	return account, nil
}

// DeleteUser removes an Account through the admin API. Used only to
// compensate a failed registration, so it is attempted exactly once and
// bypasses the circuit breaker.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteUser")
	defer span.End()

	return c.sendOnce("supabase/admin_users", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodDelete,
			url:    c.authURL("admin/users/" + url.PathEscape(userID)),
			apikey: c.serviceRoleKey,
		})
		if err != nil {
			return err
		}
		return resp.check("supabase/admin_users")
	})
}

// GetUser resolves a bearer access token to its Account. A 401/403 from
// GoTrue surfaces as *domain.ErrUpstream and is not retried.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	var account domain.Account
	err := c.readWithRetry(ctx, "supabase/user", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodGet,
			url:    c.authURL("user"),
			apikey: c.anonKey,
			bearer: accessToken,
		})
		if err != nil {
			return err
		}
		if err := resp.check("supabase/user"); err != nil {
			return err
		}
		if err := json.Unmarshal(resp.body, &account); err != nil {
			return fmt.Errorf("decode user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Recover asks GoTrue to email a password-reset link. GoTrue answers 200
// whether or not the address exists.
func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Recover")
	defer span.End()

	target := c.authURL("recover")
	if redirectTo != "" {
		target += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	return c.writeOnce(ctx, "supabase/recover", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodPost,
			url:    target,
			apikey: c.serviceRoleKey,
			body:   map[string]string{"email": email},
		})
		if err != nil {
			return err
		}
		return resp.check("supabase/recover")
	})
}
