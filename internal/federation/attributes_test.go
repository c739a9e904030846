package federation

import (
	"context"
	"errors"
	"testing"
)

// fakeEmailSource implements VerifiedEmailSource for tests.
type fakeEmailSource struct {
	email string
	err   error
	calls int
	token string
}

func (f *fakeEmailSource) PrimaryVerifiedEmail(_ context.Context, token string) (string, error) {
	f.calls++
	f.token = token
	if f.err != nil {
		return "", f.err
	}
	return f.email, nil
}

func profile(p ProviderType, attrs map[string]string) Profile {
	return Profile{Provider: p, Attributes: attrs}
}

func TestLookup_AliasOrder(t *testing.T) {
	r := NewAttributeResolver(nil, nil)
	ctx := context.Background()

	cases := []struct {
		name     string
		provider ProviderType
		attrs    map[string]string
		field    Field
		want     string
	}{
		{"facebook email", ProviderFacebook, map[string]string{"email": "a@b.com"}, FieldEmail, "a@b.com"},
		{"google email", ProviderGoogle, map[string]string{"email": "g@b.com"}, FieldEmail, "g@b.com"},
		{"linkedin email", ProviderLinkedIn, map[string]string{"email-address": "l@b.com"}, FieldEmail, "l@b.com"},
		{"facebook first", ProviderFacebook, map[string]string{"first_name": "Ana"}, FieldFirstName, "Ana"},
		{"google first", ProviderGoogle, map[string]string{"given_name": "Ana"}, FieldFirstName, "Ana"},
		{"linkedin first", ProviderLinkedIn, map[string]string{"first-name": "Ana"}, FieldFirstName, "Ana"},
		{"facebook last", ProviderFacebook, map[string]string{"last_name": "Gil"}, FieldLastName, "Gil"},
		{"google last", ProviderGoogle, map[string]string{"family_name": "Gil"}, FieldLastName, "Gil"},
		{"linkedin last", ProviderLinkedIn, map[string]string{"last-name": "Gil"}, FieldLastName, "Gil"},
		// Earlier alias wins when several are present.
		{"first alias wins", ProviderOther, map[string]string{"first_name": "A", "given_name": "B"}, FieldFirstName, "A"},
	}

	for _, tc := range cases {
		got, ok := r.Lookup(ctx, tc.field, profile(tc.provider, tc.attrs))
		if !ok {
			t.Fatalf("%s: expected found", tc.name)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestLookup_Absent(t *testing.T) {
	r := NewAttributeResolver(nil, nil)
	ctx := context.Background()

	// Missing attribute.
	if _, ok := r.Lookup(ctx, FieldEmail, profile(ProviderGoogle, nil)); ok {
		t.Fatal("expected absent for empty profile")
	}
	// Empty string counts as absent, not as a value.
	if _, ok := r.Lookup(ctx, FieldEmail, profile(ProviderGoogle, map[string]string{"email": ""})); ok {
		t.Fatal("expected absent for empty-string attribute")
	}
	// Unknown canonical field.
	if _, ok := r.Lookup(ctx, Field("shoe_size"), profile(ProviderGoogle, map[string]string{"email": "a@b.com"})); ok {
		t.Fatal("expected absent for unknown field")
	}
}

func TestLookup_GitHubNameSplit(t *testing.T) {
	r := NewAttributeResolver(nil, nil)
	ctx := context.Background()

	cases := []struct {
		name      string
		attrs     map[string]string
		wantFirst string
		wantLast  string
	}{
		{"two tokens", map[string]string{"name": "Grace Hopper"}, "Grace", "Hopper"},
		{"three tokens keep rest", map[string]string{"name": "Ana de Armas"}, "Ana", "de Armas"},
		{"single token fills both", map[string]string{"name": "Prince"}, "Prince", "Prince"},
		{"surrounding space trimmed", map[string]string{"name": "  Grace   Hopper "}, "Grace", "Hopper"},
		{"no name falls back to login", map[string]string{"login": "octocat"}, "octocat", "octocat"},
	}

	for _, tc := range cases {
		p := profile(ProviderGitHub, tc.attrs)
		first, ok := r.Lookup(ctx, FieldFirstName, p)
		if !ok || first != tc.wantFirst {
			t.Fatalf("%s: first got %q/%v want %q", tc.name, first, ok, tc.wantFirst)
		}
		last, ok := r.Lookup(ctx, FieldLastName, p)
		if !ok || last != tc.wantLast {
			t.Fatalf("%s: last got %q/%v want %q", tc.name, last, ok, tc.wantLast)
		}
	}

	// Neither name nor login present.
	if _, ok := r.Lookup(ctx, FieldFirstName, profile(ProviderGitHub, nil)); ok {
		t.Fatal("expected absent first name without name or login")
	}
}

func TestLookup_GitHubEmailNeverLiteral(t *testing.T) {
	src := &fakeEmailSource{email: "verified@example.com"}
	r := NewAttributeResolver(nil, src)
	ctx := context.Background()

	// Profile carries a literal email attribute that must be ignored.
	p := profile(ProviderGitHub, map[string]string{
		"email":        "spoofed@evil.test",
		"access_token": "gho_tok",
	})

	got, ok := r.Lookup(ctx, FieldEmail, p)
	if !ok {
		t.Fatal("expected verified email found")
	}
	if got != "verified@example.com" {
		t.Fatalf("got %q, the literal profile email must never win", got)
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", src.calls)
	}
	if src.token != "gho_tok" {
		t.Fatalf("provider called with token %q", src.token)
	}
}

func TestLookup_GitHubEmailAbsentCases(t *testing.T) {
	ctx := context.Background()

	// No access token: absent, source never called.
	src := &fakeEmailSource{email: "x@y.com"}
	r := NewAttributeResolver(nil, src)
	if _, ok := r.Lookup(ctx, FieldEmail, profile(ProviderGitHub, map[string]string{"email": "x@y.com"})); ok {
		t.Fatal("expected absent without access token")
	}
	if src.calls != 0 {
		t.Fatal("source must not be called without token")
	}

	// Upstream failure: absent, never an error for the caller.
	src = &fakeEmailSource{err: errors.New("api down")}
	r = NewAttributeResolver(nil, src)
	if _, ok := r.Lookup(ctx, FieldEmail, profile(ProviderGitHub, map[string]string{"access_token": "t"})); ok {
		t.Fatal("expected absent on upstream failure")
	}

	// Nil source: absent.
	r = NewAttributeResolver(nil, nil)
	if _, ok := r.Lookup(ctx, FieldEmail, profile(ProviderGitHub, map[string]string{"access_token": "t"})); ok {
		t.Fatal("expected absent with nil email source")
	}
}

func TestNewAttributeResolver_CopiesTable(t *testing.T) {
	table := DefaultAliasTable()
	r := NewAttributeResolver(table, nil)

	// Mutating the caller's table must not affect the resolver.
	table[FieldEmail][0] = "hacked"

	got, ok := r.Lookup(context.Background(), FieldEmail, profile(ProviderGoogle, map[string]string{"email": "a@b.com"}))
	if !ok || got != "a@b.com" {
		t.Fatalf("resolver table was mutated through caller reference: %q/%v", got, ok)
	}
}
