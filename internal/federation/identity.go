package federation

import (
	"context"
	"errors"
	"regexp"
)

// NormalizedIdentity is the canonical identity record derived from one
// federated profile. FirstName/LastName may be empty when the provider only
// gives a single-token display name and no alias matches.
type NormalizedIdentity struct {
	Email     string
	FirstName string
	LastName  string
}

// Errors for identity derivation.
var (
	ErrMalformedIdentity = errors.New("derived identity key absent or malformed")
)

// emailShapeRe is deliberately loose: local-part "@" domain-with-a-dot.
// Full RFC 5322 validation buys nothing here; the shape check exists to block
// providers that hand back empty or garbage identity strings, not to be a
// general address validator.
var emailShapeRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmailShape returns true if s looks like an email address.
func ValidEmailShape(s string) bool {
	return emailShapeRe.MatchString(s)
}

// KeyDeriver computes the canonical local lookup key (email) from a profile
// and validates its shape.
type KeyDeriver struct {
	attrs *AttributeResolver
}

// NewKeyDeriver creates a KeyDeriver over the given attribute resolver.
func NewKeyDeriver(attrs *AttributeResolver) *KeyDeriver {
	return &KeyDeriver{attrs: attrs}
}

// DeriveKey resolves and validates the email key. Returns
// ErrMalformedIdentity when the email is absent or shape-invalid.
func (d *KeyDeriver) DeriveKey(ctx context.Context, p Profile) (string, error) {
	email, ok := d.attrs.Lookup(ctx, FieldEmail, p)
	if !ok || !ValidEmailShape(email) {
		return "", ErrMalformedIdentity
	}
	return email, nil
}

// Normalize derives the full canonical identity record. The email key is
// validated; names are best-effort and may be empty.
func (d *KeyDeriver) Normalize(ctx context.Context, p Profile) (NormalizedIdentity, error) {
	email, err := d.DeriveKey(ctx, p)
	if err != nil {
		return NormalizedIdentity{}, err
	}
	first, _ := d.attrs.Lookup(ctx, FieldFirstName, p)
	last, _ := d.attrs.Lookup(ctx, FieldLastName, p)
	return NormalizedIdentity{Email: email, FirstName: first, LastName: last}, nil
}
