package domain

import "time"

// ============================================================
// Identity provider & profile store records
// ============================================================

// Account is the identity-provider user record.
type Account struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	// Identities is nil when the provider omitted the field. An empty,
	// non-nil slice marks an obfuscated duplicate signup.
	Identities []Identity `json:"identities,omitempty"`
}

// EmailConfirmed reports whether the provider has confirmed the email.
func (a *Account) EmailConfirmed() bool {
	return a.EmailConfirmedAt != nil && !a.EmailConfirmedAt.IsZero()
}

// Identity is one login method linked to an Account.
type Identity struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// SignupMetadata is stored by the provider as user metadata and read by the
// trigger that creates the profile row.
type SignupMetadata struct {
	Name     *string `json:"name"`
	CPF      string  `json:"cpf"`
	WhatsApp *string `json:"whatsapp"`
}

// Profile is the row in the profiles table, 1:1 with Account.
type Profile struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	CPF      string  `json:"cpf"`
	WhatsApp *string `json:"whatsapp"`
}

// ProfilePatch holds the columns completed after signup.
type ProfilePatch struct {
	Name     *string `json:"name"`
	CPF      string  `json:"cpf"`
	WhatsApp *string `json:"whatsapp"`
}

// ============================================================
// License ledger
// ============================================================

// LicenseStatus is the entitlement state kept in the ledger.
type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "ACTIVE"
	LicenseSuspended LicenseStatus = "SUSPENDED"
)

// License is the ledger entry upserted as the last registration step.
type License struct {
	Email      string        `json:"email"`
	Status     LicenseStatus `json:"status"`
	MaxDevices int           `json:"max_devices"`
	CreatedAt  time.Time     `json:"created_at"`
}

// LedgerResult is what the ledger webhook answered.
type LedgerResult struct {
	Status int
	Raw    string
	// Parsed is the decoded JSON body, nil when the body was not JSON.
	Parsed map[string]any
}

// OK reports whether the ledger accepted the write.
func (r *LedgerResult) OK() bool {
	if r == nil || r.Status < 200 || r.Status >= 300 || r.Parsed == nil {
		return false
	}
	ok, _ := r.Parsed["ok"].(bool)
	return ok
}
