package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/pscheid92/streamagenda/internal/app"
	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/pscheid92/streamagenda/internal/platform/config"
	"github.com/pscheid92/streamagenda/web"
)

type appService interface {
	View(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error)
	Refetch(ctx context.Context, filters domain.Filters, sort domain.Sort) (*app.View, error)
	Categories(ctx context.Context) ([]domain.GameInfo, error)
	Preferences(ctx context.Context) (domain.Preferences, error)
	SavePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error)
}

type authService interface {
	Credential(ctx context.Context) (*domain.Credential, error)
	AuthorizeURL(state string) string
	Login(ctx context.Context, fragment string) error
	Logout(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app  appService
	auth authService

	templates      *template.Template
	sessionStore   *sessions.CookieStore
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	startTime      time.Time
}

func NewServer(cfg *config.Config, app appService, auth authService, httpMetrics *metrics.HTTPMetrics, metricsHandler http.Handler, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		auth:           auth,
		templates:      templates,
		sessionStore:   setupSessionStore(cfg),
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// Session keys
const (
	sessionName          = "streamagenda-session"
	sessionKeyOAuthState = "oauth_state"
)

func (s *Server) renderTemplate(c echo.Context, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
