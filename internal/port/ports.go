// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the Supabase, ledger and workflow adapters.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
)

// IdentityProvider manages Accounts and sessions (Supabase GoTrue).
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, meta domain.SignupMetadata, redirectTo string) (*domain.Account, error)
	DeleteUser(ctx context.Context, userID string) error
	GetUser(ctx context.Context, accessToken string) (*domain.Account, error)
	Recover(ctx context.Context, email, redirectTo string) error
}

// ProfileStore reads and completes rows in the profiles table.
type ProfileStore interface {
	ProfileExistsByCPF(ctx context.Context, cpf string) (bool, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (int, error)
}

// AccessCounter increments named visit counters.
type AccessCounter interface {
	IncrementAccess(ctx context.Context, name string) error
}

// LicenseLedger writes license records.
type LicenseLedger interface {
	UpsertLicense(ctx context.Context, lic domain.License) (*domain.LedgerResult, error)
}

// WorkflowForwarder relays chat turns to the workflow engine.
type WorkflowForwarder interface {
	Forward(ctx context.Context, payload domain.WorkflowPayload) (*domain.WorkflowReply, error)
}

// Pinger is a dependency that /readyz can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	SetUntil(key string, value T, deadline time.Time)
	Enabled() bool
}
