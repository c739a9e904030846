package federation

import (
	"context"
	"strings"
	"unicode"

	"github.com/dropDatabas3/idbridge/internal/observability/logger"
)

// Field is one of the canonical attribute names used internally, independent
// of provider naming.
type Field string

const (
	FieldEmail     Field = "email"
	FieldFirstName Field = "firstname"
	FieldLastName  Field = "lastname"
)

// GitHub raw attribute names.
const (
	githubNameAttr  = "name"
	githubLoginAttr = "login"
	githubTokenAttr = "access_token"
)

// AliasTable maps each canonical field to the ordered list of provider
// attribute names tried during lookup. Order matters: the first present,
// non-empty alias wins.
type AliasTable map[Field][]string

// DefaultAliasTable returns the alias table for the table-driven providers.
//
//	canonical      facebook      google         linkedin
//	email          email         email          email-address
//	firstname      first_name    given_name     first-name
//	lastname       last_name     family_name    last-name
func DefaultAliasTable() AliasTable {
	return AliasTable{
		FieldEmail:     {"email", "email", "email-address"},
		FieldFirstName: {"first_name", "given_name", "first-name"},
		FieldLastName:  {"last_name", "family_name", "last-name"},
	}
}

// clone returns a deep copy so the resolver's table cannot be mutated by the
// caller after construction.
func (t AliasTable) clone() AliasTable {
	out := make(AliasTable, len(t))
	for f, aliases := range t {
		out[f] = append([]string(nil), aliases...)
	}
	return out
}

// VerifiedEmailSource fetches the provider-verified primary email for an
// OAuth access token. Implemented by oauth/github.Client.
type VerifiedEmailSource interface {
	PrimaryVerifiedEmail(ctx context.Context, accessToken string) (string, error)
}

// AttributeResolver resolves canonical fields from a federated profile.
// All paths are pure except GitHub email resolution, which performs one
// authenticated read against the provider's email-listing API.
type AttributeResolver struct {
	aliases AliasTable
	emails  VerifiedEmailSource
}

// NewAttributeResolver builds a resolver over the given alias table. The
// table is copied; pass nil to use DefaultAliasTable. emails may be nil, in
// which case GitHub email resolution always reports absent.
func NewAttributeResolver(aliases AliasTable, emails VerifiedEmailSource) *AttributeResolver {
	if aliases == nil {
		aliases = DefaultAliasTable()
	}
	return &AttributeResolver{aliases: aliases.clone(), emails: emails}
}

// Lookup resolves one canonical field from the profile. The boolean reports
// whether a value was found; callers must not distinguish "provider error"
// from "attribute missing" here, both are absent.
func (r *AttributeResolver) Lookup(ctx context.Context, field Field, p Profile) (string, bool) {
	if p.Provider == ProviderGitHub {
		return r.lookupGitHub(ctx, field, p)
	}
	return r.lookupAliases(field, p)
}

// lookupAliases is the table-driven path shared by Facebook, Google,
// LinkedIn and unrecognized providers.
func (r *AttributeResolver) lookupAliases(field Field, p Profile) (string, bool) {
	aliases, ok := r.aliases[field]
	if !ok {
		return "", false
	}
	for _, alias := range aliases {
		if v, ok := p.Attr(alias); ok {
			return v, true
		}
	}
	return "", false
}

func (r *AttributeResolver) lookupGitHub(ctx context.Context, field Field, p Profile) (string, bool) {
	switch field {
	case FieldFirstName:
		first, _, ok := r.githubName(p)
		return first, ok
	case FieldLastName:
		_, last, ok := r.githubName(p)
		return last, ok
	case FieldEmail:
		return r.githubEmail(ctx, p)
	default:
		return "", false
	}
}

// githubName derives first/last name from GitHub's single "name" attribute.
// The name is split on the first whitespace run; a single-token name fills
// both fields. When "name" is absent the login handle stands in for both.
func (r *AttributeResolver) githubName(p Profile) (first, last string, ok bool) {
	name, found := p.Attr(githubNameAttr)
	if !found {
		login, found := p.Attr(githubLoginAttr)
		if !found {
			return "", "", false
		}
		return login, login, true
	}
	first, last = splitName(name)
	return first, last, true
}

// splitName splits a display name on its first whitespace run. A name with
// no whitespace is used as both segments.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	cut := strings.IndexFunc(name, unicode.IsSpace)
	if cut < 0 {
		return name, name
	}
	first = name[:cut]
	last = strings.TrimLeftFunc(name[cut:], unicode.IsSpace)
	return first, last
}

// githubEmail resolves the account email through GitHub's email-listing API.
// The profile's literal "email" attribute is never consulted: it is public,
// user-editable and not guaranteed verified, so trusting it would let anyone
// claim an arbitrary address. A missing token, an upstream failure or the
// absence of a primary verified address all resolve to absent; the login is
// then rejected cleanly instead of falling back to an untrusted value.
func (r *AttributeResolver) githubEmail(ctx context.Context, p Profile) (string, bool) {
	log := logger.From(ctx).With(logger.Component("federation.attributes"))

	token, ok := p.Attr(githubTokenAttr)
	if !ok {
		log.Warn("github profile has no access token, cannot verify email")
		return "", false
	}
	if r.emails == nil {
		log.Warn("no verified email source configured for github")
		return "", false
	}

	email, err := r.emails.PrimaryVerifiedEmail(ctx, token)
	if err != nil {
		// Upstream errors must not propagate: a broken provider call
		// rejects one login, it does not crash the workflow.
		log.Warn("github verified email lookup failed", logger.Err(err))
		return "", false
	}
	return email, true
}
