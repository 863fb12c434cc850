package httpserver

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/app"
	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/pscheid92/streamagenda/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	viewFn            func(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error)
	refetchFn         func(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error)
	categoriesFn      func(ctx context.Context) ([]domain.GameInfo, error)
	preferencesFn     func(ctx context.Context) (domain.Preferences, error)
	savePreferencesFn func(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error)
}

func (m *mockAppService) View(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error) {
	if m.viewFn != nil {
		return m.viewFn(ctx, filters, sort)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Refetch(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error) {
	if m.refetchFn != nil {
		return m.refetchFn(ctx, filters, sort)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Categories(ctx context.Context) ([]domain.GameInfo, error) {
	if m.categoriesFn != nil {
		return m.categoriesFn(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Preferences(ctx context.Context) (domain.Preferences, error) {
	if m.preferencesFn != nil {
		return m.preferencesFn(ctx)
	}
	return domain.DefaultPreferences("UTC"), nil
}

func (m *mockAppService) SavePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	if m.savePreferencesFn != nil {
		return m.savePreferencesFn(ctx, prefs)
	}
	return prefs, nil
}

type mockAuthService struct {
	credentialFn func(ctx context.Context) (*domain.Credential, error)
	loginFn      func(ctx context.Context, fragment string) error
	logoutFn     func(ctx context.Context) error
}

func (m *mockAuthService) Credential(ctx context.Context) (*domain.Credential, error) {
	if m.credentialFn != nil {
		return m.credentialFn(ctx)
	}
	return nil, nil
}

func (m *mockAuthService) AuthorizeURL(state string) string {
	return "https://id.twitch.tv/oauth2/authorize?state=" + state
}

func (m *mockAuthService) Login(ctx context.Context, fragment string) error {
	if m.loginFn != nil {
		return m.loginFn(ctx, fragment)
	}
	return nil
}

func (m *mockAuthService) Logout(ctx context.Context) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx)
	}
	return nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService, opts ...func(*Server)) *Server {
	t.Helper()

	tmpl := template.Must(template.New("callback.html").Parse(`Callback {{.CSRFToken}} {{.Next}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	srv := &Server{
		echo: echo.New(),
		config: &config.Config{
			TwitchClientID:    "test-client-id",
			TwitchRedirectURI: "http://localhost/auth/callback",
			APIRateLimit:      1000,
			APIRateBurst:      1000,
			SessionMaxAge:     time.Hour,
		},
		app:          app,
		auth:         &mockAuthService{},
		sessionStore: store,
		templates:    tmpl,
		startTime:    time.Now(),
	}

	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func withAuth(auth authService) func(*Server) {
	return func(s *Server) {
		s.auth = auth
	}
}

func withHealthChecks(checks ...HealthCheck) func(*Server) {
	return func(s *Server) {
		s.healthChecks = checks
	}
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}

func setSessionState(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, state string) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyOAuthState] = state
	require.NoError(t, session.Save(req, rec))
}
