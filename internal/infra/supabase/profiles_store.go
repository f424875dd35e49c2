package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/hub-avance-go/internal/domain"
)

// ============================================================
// PostgREST: profiles table and access counter
// ============================================================

type idRow struct {
	ID string `json:"id"`
}

// ProfileExistsByCPF reports whether any profile already holds the tax id.
func (c *Client) ProfileExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ProfileExistsByCPF")
	defer span.End()

	path := fmt.Sprintf("profiles?select=id&cpf=eq.%s&limit=1", url.QueryEscape(cpf))

	var exists bool
	err := c.readWithRetry(ctx, "supabase/profiles", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodGet,
			url:    c.restURL(path),
			apikey: c.serviceRoleKey,
		})
		if err != nil {
			return err
		}
		if err := resp.check("supabase/profiles"); err != nil {
			return err
		}

		var rows []idRow
		if err := json.Unmarshal(resp.body, &rows); err != nil {
			return fmt.Errorf("decode profiles: %w", err)
		}
		exists = len(rows) > 0
		return nil
	})
	return exists, err
}

// UpdateProfile completes the trigger-created profile row and returns how
// many rows PostgREST reports as updated.
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfile")
	defer span.End()

	path := "profiles?id=eq." + url.QueryEscape(userID)

	var updated int
	err := c.writeOnce(ctx, "supabase/profiles", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodPatch,
			url:    c.restURL(path),
			apikey: c.serviceRoleKey,
			prefer: "return=representation",
			body:   patch,
		})
		if err != nil {
			return err
		}
		if err := resp.check("supabase/profiles"); err != nil {
			return err
		}

		var rows []domain.Profile
		if err := json.Unmarshal(resp.body, &rows); err != nil {
			return fmt.Errorf("decode updated profiles: %w", err)
		}
		updated = len(rows)
		return nil
	})
	return updated, err
}

// IncrementAccess bumps the named counter through the increment_access RPC.
func (c *Client) IncrementAccess(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "Supabase.IncrementAccess")
	defer span.End()

	return c.writeOnce(ctx, "supabase/increment_access", func() error {
		resp, err := c.send(ctx, request{
			method: http.MethodPost,
			url:    c.restURL("rpc/increment_access"),
			apikey: c.serviceRoleKey,
			body:   map[string]string{"p_name": name},
		})
		if err != nil {
			return err
		}
		return resp.check("supabase/increment_access")
	})
}
