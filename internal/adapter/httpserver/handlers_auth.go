package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

const agendaPath = "/api/schedules"

type tokenRequest struct {
	Fragment string `json:"fragment"`
}

func (s *Server) registerAuthRoutes(g *echo.Group, csrfMiddleware echo.MiddlewareFunc) {
	g.GET("/login", s.handleLogin)
	g.GET("/callback", s.handleOAuthCallback, csrfMiddleware)
	g.POST("/token", s.handleToken, csrfMiddleware)
	g.POST("/logout", s.handleLogout)
}

func (s *Server) handleLanding(c echo.Context) error {
	target := "/auth/login"
	cred, err := s.auth.Credential(c.Request().Context())
	if err != nil {
		slog.WarnContext(c.Request().Context(), "Failed to load credential for landing", "error", err)
	}
	if cred != nil {
		target = agendaPath
	}

	if err := c.Redirect(http.StatusFound, target); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleLogin(c echo.Context) error {
	state := uuid.NewString()

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Discarding undecodable session", "error", err)
	}
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save OAuth state session", err)
	}

	if err := c.Redirect(http.StatusFound, s.auth.AuthorizeURL(state)); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

// handleOAuthCallback serves the page that forwards the URL fragment, which
// never reaches the server on its own.
func (s *Server) handleOAuthCallback(c echo.Context) error {
	data := map[string]any{
		"CSRFToken": c.Get(middleware.DefaultCSRFConfig.ContextKey),
		"Next":      agendaPath,
	}
	return s.renderTemplate(c, "callback.html", data)
}

func (s *Server) handleToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	fragment := strings.TrimPrefix(req.Fragment, "#")
	params, err := url.ParseQuery(fragment)
	if err != nil {
		return apperrors.AuthError("malformed authentication response")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return apperrors.ValidationError("invalid session")
	}
	expectedState, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expectedState == "" {
		return apperrors.ValidationError("missing OAuth state")
	}
	if params.Get("state") != expectedState {
		return apperrors.ValidationError("invalid OAuth state")
	}

	delete(session.Values, sessionKeyOAuthState)
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to clear OAuth state", err)
	}

	if err := s.auth.Login(c.Request().Context(), fragment); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "authenticated"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.auth.Logout(c.Request().Context()); err != nil {
		return apperrors.InternalError("failed to log out", err)
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "logged_out"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
