package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/streamagenda/internal/app"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

const dateOnlyLayout = "2006-01-02"

func (s *Server) registerScheduleRoutes(api *echo.Group) {
	api.GET("/schedules", s.handleSchedules)
	api.POST("/schedules/refresh", s.handleRefresh)
	api.GET("/categories", s.handleCategories)
}

func (s *Server) handleSchedules(c echo.Context) error {
	filters, sort, err := parseViewQuery(c)
	if err != nil {
		return err
	}

	view, err := s.app.View(c.Request().Context(), filters, sort)
	if err != nil {
		return err
	}
	return writeView(c, view)
}

func (s *Server) handleRefresh(c echo.Context) error {
	filters, sort, err := parseViewQuery(c)
	if err != nil {
		return err
	}

	view, err := s.app.Refetch(c.Request().Context(), filters, sort)
	if err != nil {
		return err
	}
	return writeView(c, view)
}

func (s *Server) handleCategories(c echo.Context) error {
	games, err := s.app.Categories(c.Request().Context())
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]any{"categories": games}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// writeView answers with the view unless there is nothing to show, in which
// case the view's error decides the status.
func writeView(c echo.Context, view *app.View) error {
	if !view.Authenticated && view.Err != nil {
		return view.Err
	}
	if !view.HasData && view.Err != nil {
		return view.Err
	}

	if err := c.JSON(http.StatusOK, view); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func parseViewQuery(c echo.Context) (domain.Filters, domain.Sort, error) {
	q := c.QueryParams()

	filters := domain.Filters{
		SearchTerm: strings.TrimSpace(q.Get("search")),
		Categories: nonEmpty(q["category"]),
		Streamers:  nonEmpty(q["streamer"]),
	}

	if raw := q.Get("favorites"); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.Filters{}, domain.Sort{}, apperrors.ValidationError("favorites must be a boolean")
		}
		filters.Favorites = fav
	}

	var err error
	if filters.StartDate, err = parseBound(q.Get("start"), false); err != nil {
		return domain.Filters{}, domain.Sort{}, apperrors.ValidationError("invalid start date").WithField("start", q.Get("start"))
	}
	if filters.EndDate, err = parseBound(q.Get("end"), true); err != nil {
		return domain.Filters{}, domain.Sort{}, apperrors.ValidationError("invalid end date").WithField("end", q.Get("end"))
	}

	sort := domain.DefaultSort
	if field := q.Get("sort"); field != "" {
		sort.Field = domain.SortField(field)
	}
	if dir := q.Get("dir"); dir != "" {
		sort.Direction = domain.SortDirection(dir)
	}
	if !sort.Valid() {
		return domain.Filters{}, domain.Sort{}, apperrors.ValidationError("invalid sort").
			WithField("sort", string(sort.Field)).
			WithField("dir", string(sort.Direction))
	}

	return filters, sort, nil
}

// parseBound accepts RFC 3339 or a bare date. A bare end date covers the
// whole day.
func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}

	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
