// Package github implements the authenticated read against GitHub's
// email-listing API. GitHub's public profile email is user-editable and not
// guaranteed verified, so it is never a safe identity source; the only
// trusted path is /user/emails with the user's own access token.
package github

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultEmailEndpoint = "https://api.github.com/user/emails"

// Errors returned by the client.
var (
	ErrNoVerifiedEmail = errors.New("github: no primary verified email")
)

// EmailEntry is one record from GitHub's email-listing API.
type EmailEntry struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Cache is the subset of the cache facade the client needs. May be nil.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}

// Client fetches verified emails from GitHub.
type Client struct {
	Endpoint string
	CacheTTL time.Duration

	http  *http.Client
	cache Cache
	sf    singleflight.Group
}

// Options tunes the client. Zero values get sensible defaults.
type Options struct {
	Endpoint string
	Timeout  time.Duration
	Cache    Cache
	CacheTTL time.Duration
}

// New creates a GitHub email client.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEmailEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Client{
		Endpoint: opts.Endpoint,
		CacheTTL: opts.CacheTTL,
		http:     &http.Client{Timeout: opts.Timeout},
		cache:    opts.Cache,
	}
}

// ListEmails fetches all email records for the token.
func (c *Client) ListEmails(ctx context.Context, accessToken string) ([]EmailEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api error: status %d", resp.StatusCode)
	}

	var emails []EmailEntry
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return nil, fmt.Errorf("failed to decode emails: %w", err)
	}
	return emails, nil
}

// PrimaryVerifiedEmail returns the first email that is both primary and
// verified. There is deliberately no fallback to unverified or non-primary
// addresses: an ambiguous result must reject the login, not weaken it.
//
// Concurrent calls for the same token are collapsed via singleflight, and a
// positive result is cached briefly so a retry within the same login burst
// does not hit the API again. Only the token's digest is used as the key.
func (c *Client) PrimaryVerifiedEmail(ctx context.Context, accessToken string) (string, error) {
	key := tokenKey(accessToken)

	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			return string(v), nil
		}
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		emails, err := c.ListEmails(ctx, accessToken)
		if err != nil {
			return "", err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				return e.Email, nil
			}
		}
		return "", ErrNoVerifiedEmail
	})
	if err != nil {
		return "", err
	}

	email := v.(string)
	if c.cache != nil {
		c.cache.Set(key, []byte(email), c.CacheTTL)
	}
	return email, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "github:emails:" + hex.EncodeToString(sum[:8])
}
