package federation

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/idbridge/internal/store/core"
)

// fakeStore implements AccountResolver and UserProvisioner with the backing
// store's contract: non-nil placeholder records for unknown keys, ErrConflict
// on duplicate creates.
type fakeStore struct {
	accounts map[string]*Account

	createErr   error
	dropCreates bool
	resolveErr  error

	resolves int
	creates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]*Account)}
}

func (s *fakeStore) Resolve(_ context.Context, key string) (*Account, error) {
	s.resolves++
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	if a, ok := s.accounts[key]; ok {
		return a, nil
	}
	return &Account{Attributes: map[string]string{"email": key}}, nil
}

func (s *fakeStore) Create(_ context.Context, id NormalizedIdentity) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	if s.dropCreates {
		return nil
	}
	if _, ok := s.accounts[id.Email]; ok {
		return core.ErrConflict
	}
	s.accounts[id.Email] = &Account{
		UserID: "u-" + id.Email,
		Attributes: map[string]string{
			AccountMarkerKey: "u-" + id.Email,
			"email":          id.Email,
			"firstname":      id.FirstName,
			"lastname":       id.LastName,
		},
	}
	return nil
}

func newTestResolver(st *fakeStore) *Resolver {
	return NewResolver(ResolverDeps{
		Deriver:     NewKeyDeriver(NewAttributeResolver(nil, nil)),
		Accounts:    st,
		Provisioner: st,
		Validator:   NewPrincipalValidator(""),
	})
}

func googleProfile(email string) Profile {
	return profile(ProviderGoogle, map[string]string{
		"email":      email,
		"given_name": "Jane",
	})
}

func TestResolvePrincipal_NewUserProvisioned(t *testing.T) {
	st := newFakeStore()
	r := newTestResolver(st)

	out := r.ResolvePrincipal(context.Background(), googleProfile("jane@example.com"))

	if out.Status != StatusAccepted {
		t.Fatalf("status %q", out.Status)
	}
	if !out.Provisioned {
		t.Fatal("expected Provisioned for a first login")
	}
	if out.Account == nil || out.Account.UserID == "" {
		t.Fatalf("account %+v", out.Account)
	}
	if st.creates != 1 {
		t.Fatalf("expected exactly one create, got %d", st.creates)
	}
	if st.resolves != 2 {
		t.Fatalf("expected lookup + re-lookup, got %d resolves", st.resolves)
	}
	if out.Identity.FirstName != "Jane" {
		t.Fatalf("identity %+v", out.Identity)
	}
}

func TestResolvePrincipal_ExistingUserNoCreate(t *testing.T) {
	st := newFakeStore()
	r := newTestResolver(st)
	ctx := context.Background()

	first := r.ResolvePrincipal(ctx, googleProfile("jane@example.com"))
	second := r.ResolvePrincipal(ctx, googleProfile("jane@example.com"))

	if second.Status != StatusAccepted {
		t.Fatalf("status %q", second.Status)
	}
	if second.Provisioned {
		t.Fatal("second login must not report Provisioned")
	}
	if second.Account.UserID != first.Account.UserID {
		t.Fatalf("user id changed across logins: %q vs %q", first.Account.UserID, second.Account.UserID)
	}
	if st.creates != 1 {
		t.Fatalf("expected one create total, got %d", st.creates)
	}
}

func TestResolvePrincipal_InvalidIdentityNeverCreates(t *testing.T) {
	st := newFakeStore()
	r := newTestResolver(st)

	cases := []Profile{
		profile(ProviderGoogle, nil),
		profile(ProviderGoogle, map[string]string{"email": "garbage"}),
		// GitHub without an access token cannot prove its email.
		profile(ProviderGitHub, map[string]string{"email": "public@example.com", "name": "Jane Doe"}),
	}
	for i, p := range cases {
		out := r.ResolvePrincipal(context.Background(), p)
		if out.Status != StatusInvalidIdentity {
			t.Fatalf("case %d: status %q", i, out.Status)
		}
		if out.Account != nil {
			t.Fatalf("case %d: account on rejection", i)
		}
	}
	if st.creates != 0 {
		t.Fatalf("invalid identities must never provision, got %d creates", st.creates)
	}
	if st.resolves != 0 {
		t.Fatalf("invalid identities must never hit the store, got %d resolves", st.resolves)
	}
}

func TestResolvePrincipal_ProvisionFailed(t *testing.T) {
	// The store acknowledges the create but never writes it; the re-lookup
	// still sees a placeholder, so the attempt fails.
	st := newFakeStore()
	st.dropCreates = true
	r := newTestResolver(st)

	out := r.ResolvePrincipal(context.Background(), googleProfile("jane@example.com"))
	if out.Status != StatusProvisionFailed {
		t.Fatalf("status %q", out.Status)
	}
	if out.Account != nil {
		t.Fatal("no account on provision failure")
	}
	if st.creates != 1 || st.resolves != 2 {
		t.Fatalf("exactly one create and one re-lookup expected: creates=%d resolves=%d", st.creates, st.resolves)
	}
}

func TestResolvePrincipal_ConflictMeansConcurrentCreate(t *testing.T) {
	// Simulate losing the create race: Create reports conflict, but the
	// account exists by the time of the re-lookup.
	st := newFakeStore()
	existing := &Account{
		UserID:     "u-race",
		Attributes: map[string]string{AccountMarkerKey: "u-race", "email": "jane@example.com"},
	}
	r := NewResolver(ResolverDeps{
		Deriver: NewKeyDeriver(NewAttributeResolver(nil, nil)),
		Accounts: resolveFunc(func(_ context.Context, key string) (*Account, error) {
			if st.resolves++; st.resolves == 1 {
				// First lookup: not there yet.
				return &Account{Attributes: map[string]string{"email": key}}, nil
			}
			return existing, nil
		}),
		Provisioner: createFunc(func(context.Context, NormalizedIdentity) error {
			st.creates++
			return core.ErrConflict
		}),
	})

	out := r.ResolvePrincipal(context.Background(), googleProfile("jane@example.com"))
	if out.Status != StatusAccepted {
		t.Fatalf("status %q", out.Status)
	}
	if out.Account.UserID != "u-race" {
		t.Fatalf("account %+v", out.Account)
	}
	if st.creates != 1 {
		t.Fatalf("creates=%d", st.creates)
	}
}

func TestResolvePrincipal_LookupErrorRecoversViaProvisioning(t *testing.T) {
	// First lookup fails; provisioning and the re-lookup still complete the
	// login.
	st := newFakeStore()
	failures := 1
	r := NewResolver(ResolverDeps{
		Deriver: NewKeyDeriver(NewAttributeResolver(nil, nil)),
		Accounts: resolveFunc(func(ctx context.Context, key string) (*Account, error) {
			if failures > 0 {
				failures--
				return nil, errors.New("store timeout")
			}
			return st.Resolve(ctx, key)
		}),
		Provisioner: st,
	})

	out := r.ResolvePrincipal(context.Background(), googleProfile("jane@example.com"))
	if out.Status != StatusAccepted || !out.Provisioned {
		t.Fatalf("outcome %+v", out)
	}
}

type resolveFunc func(ctx context.Context, key string) (*Account, error)

func (f resolveFunc) Resolve(ctx context.Context, key string) (*Account, error) { return f(ctx, key) }

type createFunc func(ctx context.Context, id NormalizedIdentity) error

func (f createFunc) Create(ctx context.Context, id NormalizedIdentity) error { return f(ctx, id) }
