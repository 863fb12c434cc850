package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/pscheid92/streamagenda/internal/domain"
)

type mockSource struct {
	getAllSchedulesFn func(ctx context.Context, token string) ([]domain.Schedule, error)
	getGamesFn        func(ctx context.Context, token string, names []string) ([]domain.GameInfo, error)
}

func (m *mockSource) GetAllSchedules(ctx context.Context, token string) ([]domain.Schedule, error) {
	if m.getAllSchedulesFn != nil {
		return m.getAllSchedulesFn(ctx, token)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSource) GetGames(ctx context.Context, token string, names []string) ([]domain.GameInfo, error) {
	if m.getGamesFn != nil {
		return m.getGamesFn(ctx, token, names)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockCredentialStore struct {
	mu      sync.Mutex
	cred    *domain.Credential
	loadErr error
	cleared int
}

func (m *mockCredentialStore) Load(_ context.Context) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *mockCredentialStore) Save(_ context.Context, cred domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *mockCredentialStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	m.loadErr = nil
	m.cleared++
	return nil
}

type mockAuthenticator struct {
	validateTokenFn func(ctx context.Context, token string) (bool, error)
	parseFragmentFn func(fragment string) (domain.Credential, error)
}

func (m *mockAuthenticator) ValidateToken(ctx context.Context, token string) (bool, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return true, nil
}

func (m *mockAuthenticator) AuthorizeURL(state string) string {
	return "https://id.example/authorize?state=" + state
}

func (m *mockAuthenticator) ParseFragment(fragment string) (domain.Credential, error) {
	if m.parseFragmentFn != nil {
		return m.parseFragmentFn(fragment)
	}
	return domain.Credential{}, fmt.Errorf("not implemented")
}

type mockPreferencesStore struct {
	prefs   *domain.Preferences
	loadErr error
}

func (m *mockPreferencesStore) Load(_ context.Context) (*domain.Preferences, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.prefs, nil
}

func (m *mockPreferencesStore) Save(_ context.Context, prefs domain.Preferences) error {
	m.prefs = &prefs
	return nil
}
