package service_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/boddenberg/hub-avance-go/internal/domain"
)

// --- Mocks ---

// fakeSupabase is an in-memory identity provider + profile store. It keeps
// a shared call log so tests can assert ordering across collaborators.
type fakeSupabase struct {
	mu sync.Mutex

	log *[]string

	profiles map[string]domain.Profile // by user id
	users    map[string]string         // id -> email
	nextID   int

	existsErr    error
	signupErr    error
	signupResult *domain.Account
	updateErr    error
	updateRows   *int
	deleteErr    error
	getUser      *domain.Account
	getUserErr   error
	recoverErr   error
	incrementErr error

	signupCalls    int
	deleteCalls    int
	getUserCalls   int
	incrementCalls int
	deletedIDs     []string
	lastMeta       domain.SignupMetadata
	lastRedirect   string
}

func newFakeSupabase(log *[]string) *fakeSupabase {
	return &fakeSupabase{
		log:      log,
		profiles: make(map[string]domain.Profile),
		users:    make(map[string]string),
	}
}

func (f *fakeSupabase) record(s string) {
	if f.log != nil {
		*f.log = append(*f.log, s)
	}
}

func (f *fakeSupabase) ProfileExistsByCPF(_ context.Context, cpf string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("exists")
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, p := range f.profiles {
		if p.CPF == cpf {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSupabase) SignUp(_ context.Context, email, _ string, meta domain.SignupMetadata, redirectTo string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("signup")
	f.signupCalls++
	f.lastMeta = meta
	f.lastRedirect = redirectTo
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	if f.signupResult != nil {
		return f.signupResult, nil
	}
	f.nextID++
	id := fmt.Sprintf("user-%d", f.nextID)
	f.users[id] = email
	// the provider-side trigger creates an empty profile row
	f.profiles[id] = domain.Profile{ID: id}
	return &domain.Account{ID: id, Email: email, Identities: []domain.Identity{{ID: id, Provider: "email"}}}, nil
}

func (f *fakeSupabase) UpdateProfile(_ context.Context, userID string, patch domain.ProfilePatch) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("profile")
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	if f.updateRows != nil {
		return *f.updateRows, nil
	}
	if _, ok := f.profiles[userID]; !ok {
		return 0, nil
	}
	f.profiles[userID] = domain.Profile{ID: userID, Name: patch.Name, CPF: patch.CPF, WhatsApp: patch.WhatsApp}
	return 1, nil
}

func (f *fakeSupabase) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	f.deleteCalls++
	f.deletedIDs = append(f.deletedIDs, userID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.users, userID)
	delete(f.profiles, userID)
	return nil
}

func (f *fakeSupabase) GetUser(_ context.Context, _ string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getUserCalls++
	return f.getUser, f.getUserErr
}

func (f *fakeSupabase) Recover(_ context.Context, _, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRedirect = redirectTo
	return f.recoverErr
}

func (f *fakeSupabase) IncrementAccess(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementCalls++
	return f.incrementErr
}

type fakeLedger struct {
	log     *[]string
	result  *domain.LedgerResult
	err     error
	calls   int
	license domain.License
}

func (f *fakeLedger) UpsertLicense(_ context.Context, lic domain.License) (*domain.LedgerResult, error) {
	if f.log != nil {
		*f.log = append(*f.log, "license")
	}
	f.calls++
	f.license = lic
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.LedgerResult{Status: 200, Raw: `{"ok":true}`, Parsed: map[string]any{"ok": true}}, nil
}

type fakeWorkflow struct {
	reply   *domain.WorkflowReply
	err     error
	payload domain.WorkflowPayload
	calls   int
}

func (f *fakeWorkflow) Forward(_ context.Context, p domain.WorkflowPayload) (*domain.WorkflowReply, error) {
	f.calls++
	f.payload = p
	return f.reply, f.err
}
