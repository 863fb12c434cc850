package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/domain"
)

// AuthService owns the deployment's single credential.
type AuthService struct {
	store    domain.CredentialStore
	provider domain.Authenticator
	agg      *Aggregator
	clock    clockwork.Clock
}

func NewAuthService(store domain.CredentialStore, provider domain.Authenticator, agg *Aggregator, clock clockwork.Clock) *AuthService {
	return &AuthService{store: store, provider: provider, agg: agg, clock: clock}
}

// Boot validates the stored credential once. Anything short of a confirmed
// valid token clears it; there is no retry.
func (s *AuthService) Boot(ctx context.Context) error {
	cred, err := s.store.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Stored credential unreadable, clearing", "error", err)
		return s.clear(ctx)
	}
	if !cred.Usable() {
		return nil
	}

	valid, err := s.provider.ValidateToken(ctx, cred.AccessToken)
	if err != nil {
		slog.WarnContext(ctx, "Credential validation failed, clearing", "error", err)
		return s.clear(ctx)
	}
	if !valid {
		slog.InfoContext(ctx, "Stored credential rejected by Twitch, clearing")
		return s.clear(ctx)
	}

	slog.InfoContext(ctx, "Restored stored credential")
	return nil
}

// Credential returns the live credential or nil when none is usable.
func (s *AuthService) Credential(ctx context.Context) (*domain.Credential, error) {
	cred, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.Usable() || cred.Expired(s.clock.Now()) {
		return nil, nil
	}
	return cred, nil
}

func (s *AuthService) AuthorizeURL(state string) string {
	return s.provider.AuthorizeURL(state)
}

// Login stores the credential carried by an OAuth callback fragment.
func (s *AuthService) Login(ctx context.Context, fragment string) error {
	cred, err := s.provider.ParseFragment(fragment)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	s.agg.Invalidate()
	slog.InfoContext(ctx, "Logged in", "expires_in", cred.ExpiresIn)
	return nil
}

// Logout forgets the credential and everything fetched with it.
func (s *AuthService) Logout(ctx context.Context) error {
	s.agg.Reset()
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	slog.InfoContext(ctx, "Logged out")
	return nil
}

func (s *AuthService) clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
