package federation

// AccountMarkerKey is the attribute whose presence marks a genuine,
// already-provisioned local account.
const AccountMarkerKey = "userid"

// Account is the record the local identity store returns for a lookup key.
// The store has been observed returning non-nil records with placeholder
// attributes for keys it does not know, so existence is judged by the marker
// attribute, never by the record being non-nil.
type Account struct {
	UserID     string
	Attributes map[string]string
}

// Attr returns an account attribute, reporting presence.
func (a *Account) Attr(key string) (string, bool) {
	if a == nil || a.Attributes == nil {
		return "", false
	}
	v, ok := a.Attributes[key]
	return v, ok
}

// PrincipalValidator decides whether a resolved account record represents a
// real existing local identity.
type PrincipalValidator struct {
	marker string
}

// NewPrincipalValidator creates a validator. An empty marker defaults to
// AccountMarkerKey.
func NewPrincipalValidator(marker string) *PrincipalValidator {
	if marker == "" {
		marker = AccountMarkerKey
	}
	return &PrincipalValidator{marker: marker}
}

// IsExisting reports whether the account carries the local identity marker.
func (v *PrincipalValidator) IsExisting(a *Account) bool {
	if a == nil || a.Attributes == nil {
		return false
	}
	_, ok := a.Attributes[v.marker]
	return ok
}
