package federation

import "strings"

// ProviderType identifies the upstream identity provider a profile came from.
// Providers with conventional attribute naming share the table-driven lookup
// path; GitHub is special-cased because its public profile email is a
// user-editable, possibly unverified field.
type ProviderType int

const (
	// ProviderOther covers any provider we have no dedicated rules for.
	// It still goes through the generic alias table.
	ProviderOther ProviderType = iota
	ProviderFacebook
	ProviderGoogle
	ProviderLinkedIn
	ProviderGitHub
)

// String returns the canonical lowercase provider name.
func (p ProviderType) String() string {
	switch p {
	case ProviderFacebook:
		return "facebook"
	case ProviderGoogle:
		return "google"
	case ProviderLinkedIn:
		return "linkedin"
	case ProviderGitHub:
		return "github"
	default:
		return "other"
	}
}

// ParseProvider maps a provider name (as sent by the broker) to a
// ProviderType. Unrecognized names resolve to ProviderOther.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "facebook":
		return ProviderFacebook
	case "google":
		return ProviderGoogle
	case "linkedin":
		return ProviderLinkedIn
	case "github":
		return ProviderGitHub
	default:
		return ProviderOther
	}
}

// Profile is the raw attribute bag the identity broker hands us after a
// successful upstream login. It is read-only and scoped to one login attempt.
type Profile struct {
	Provider   ProviderType
	Attributes map[string]string
}

// Attr returns the named raw attribute, reporting presence. Empty values are
// treated as absent: providers have been observed returning "" for fields the
// user never filled in.
func (p Profile) Attr(name string) (string, bool) {
	v, ok := p.Attributes[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
