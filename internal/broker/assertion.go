// Package broker verifies the signed assertion the federated identity broker
// sends after authenticating a user upstream. The assertion is an HS256 JWT
// whose claims carry the provider name and the raw attribute bag; the shared
// secret is distributed out of band and stored encrypted in config.
package broker

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors for assertion verification.
var (
	ErrAssertionInvalid  = errors.New("broker assertion invalid")
	ErrAssertionExpired  = errors.New("broker assertion expired")
	ErrProviderMissing   = errors.New("broker assertion has no provider")
	ErrAttributesMissing = errors.New("broker assertion has no attributes")
)

// Assertion is the verified payload of one federated login.
type Assertion struct {
	Provider   string
	Subject    string
	Attributes map[string]string
}

type assertionClaims struct {
	Provider   string            `json:"provider"`
	Attributes map[string]string `json:"attributes"`
	jwt.RegisteredClaims
}

// Verifier validates broker assertions.
type Verifier struct {
	secret []byte
	issuer string
	maxAge time.Duration
}

// NewVerifier creates a Verifier. issuer is matched against the assertion's
// iss claim when non-empty. maxAge bounds iat in addition to exp; zero
// disables the check.
func NewVerifier(secret []byte, issuer string, maxAge time.Duration) *Verifier {
	return &Verifier{secret: secret, issuer: issuer, maxAge: maxAge}
}

// Verify parses and validates the assertion string.
func (v *Verifier) Verify(assertion string) (*Assertion, error) {
	var claims assertionClaims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	_, err := jwt.ParseWithClaims(assertion, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrAssertionExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrAssertionInvalid, err)
	}

	if v.maxAge > 0 {
		if claims.IssuedAt == nil {
			return nil, fmt.Errorf("%w: missing iat", ErrAssertionInvalid)
		}
		if time.Since(claims.IssuedAt.Time) > v.maxAge {
			return nil, fmt.Errorf("%w: iat too old", ErrAssertionExpired)
		}
	}

	if claims.Provider == "" {
		return nil, ErrProviderMissing
	}
	if len(claims.Attributes) == 0 {
		return nil, ErrAttributesMissing
	}

	return &Assertion{
		Provider:   claims.Provider,
		Subject:    claims.Subject,
		Attributes: claims.Attributes,
	}, nil
}
