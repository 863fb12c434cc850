package domain

import (
	"context"
	"time"
)

// DefaultTokenLifetime applies when the OAuth response omits expires_in.
const DefaultTokenLifetime = 3600 * time.Second

// Credential is the single live access token for this deployment.
type Credential struct {
	AccessToken     string        `json:"access_token"`
	IsAuthenticated bool          `json:"is_authenticated"`
	ExpiresIn       time.Duration `json:"expires_in"`
	ObtainedAt      time.Time     `json:"obtained_at"`
}

// Usable reports whether the credential can be presented to the remote API.
func (c *Credential) Usable() bool {
	return c != nil && c.IsAuthenticated && c.AccessToken != ""
}

// CredentialStore persists the credential. Load returns nil, nil when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (*Credential, error)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}

// TokenValidator checks a token against the identity provider.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (bool, error)
}

// Authenticator is the identity provider side of the implicit-grant flow.
type Authenticator interface {
	TokenValidator
	AuthorizeURL(state string) string
	ParseFragment(fragment string) (Credential, error)
}

// Expired reports whether the token lifetime has elapsed at now.
func (c *Credential) Expired(now time.Time) bool {
	if c.ExpiresIn <= 0 {
		return false
	}
	return !now.Before(c.ObtainedAt.Add(c.ExpiresIn))
}
