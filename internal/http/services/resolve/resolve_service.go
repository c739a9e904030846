package resolve

import (
	"context"
	"errors"

	"github.com/dropDatabas3/idbridge/internal/federation"
)

// Service handles one federated login: assertion verification, principal
// resolution and (when needed) just-in-time provisioning.
type Service interface {
	// Resolve processes the assertion for the provider named in the path and
	// returns the terminal outcome. An error is returned only for request
	// problems (bad assertion, provider mismatch); rejected logins come back
	// as outcomes, not errors.
	Resolve(ctx context.Context, req Request) (*federation.Outcome, error)
}

// Request contains the parameters for one resolution.
type Request struct {
	// Provider is the provider name from the URL path.
	Provider string
	// Assertion is the broker-signed JWT from the request body.
	Assertion string
}

// Errors for the resolve service.
var (
	ErrMissingAssertion  = errors.New("missing assertion")
	ErrAssertionRejected = errors.New("assertion rejected")
	ErrProviderMismatch  = errors.New("provider mismatch")
)
