// Package resolve contains the wire types for the principal-resolution
// endpoint consumed by the SSO layer.
package resolve

// ResolveRequest is the body of POST /v1/resolve/{provider}.
type ResolveRequest struct {
	// Assertion is the broker-signed JWT carrying the raw attribute bag.
	Assertion string `json:"assertion"`
}

// ResolveResponse reports the terminal outcome of one login attempt.
type ResolveResponse struct {
	Status     string            `json:"status"` // accepted | invalid_identity | provision_failed
	UserID     string            `json:"user_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	// Provisioned is true when this attempt created the account.
	Provisioned bool `json:"provisioned,omitempty"`
}
