package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

func (s *Server) registerPreferenceRoutes(api *echo.Group) {
	api.GET("/preferences", s.handleGetPreferences)
	api.PUT("/preferences", s.handlePutPreferences)
}

func (s *Server) handleGetPreferences(c echo.Context) error {
	prefs, err := s.app.Preferences(c.Request().Context())
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, prefs); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handlePutPreferences(c echo.Context) error {
	var prefs domain.Preferences
	if err := c.Bind(&prefs); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	saved, err := s.app.SavePreferences(c.Request().Context(), prefs)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, saved); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
