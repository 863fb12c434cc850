package app

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/pscheid92/streamagenda/internal/schedule"
)

var validThemes = []string{"light", "dark", "system"}

// View is the agenda as served to clients.
type View struct {
	Streams             []domain.Stream            `json:"streams"`
	StreamsByDay        []schedule.DayGroup        `json:"streams_by_day"`
	AllStreamers        []schedule.StreamerSummary `json:"all_streamers"`
	AvailableCategories []string                   `json:"available_categories"`
	CategoryDetails     []domain.GameInfo          `json:"category_details"`
	IsLoading           bool                       `json:"is_loading"`
	Error               *apperrors.ErrorResponse   `json:"error,omitempty"`
	StaleRefreshFailed  bool                       `json:"stale_refresh_failed"`
	Authenticated       bool                       `json:"authenticated"`

	// HasData is false when nothing could be loaded at all.
	HasData bool             `json:"-"`
	Err     *apperrors.Error `json:"-"`
}

// Service assembles the agenda from the aggregator, the engine and the
// stored preferences.
type Service struct {
	auth      *AuthService
	agg       *Aggregator
	engine    *schedule.Engine
	prefs     domain.PreferencesStore
	clock     clockwork.Clock
	defaultTZ string
}

func NewService(auth *AuthService, agg *Aggregator, engine *schedule.Engine, prefs domain.PreferencesStore, clock clockwork.Clock, defaultTZ string) *Service {
	return &Service{
		auth:      auth,
		agg:       agg,
		engine:    engine,
		prefs:     prefs,
		clock:     clock,
		defaultTZ: defaultTZ,
	}
}

// View returns the filtered, sorted and day-grouped agenda. A missing
// credential is reported in the view, not as an error.
func (s *Service) View(ctx context.Context, filters domain.Filters, sort domain.Sort) (*View, error) {
	cred, err := s.auth.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return unauthenticatedView(), nil
	}

	prefs := s.loadPreferences(ctx)
	res := s.agg.Schedules(ctx, cred.AccessToken)

	all := domain.Flatten(res.Value)
	filters.FavoriteIDs = prefs.Favorites
	streams := s.engine.Apply(all, filters, sort, s.clock.Now())

	view := &View{
		Streams:             streams,
		StreamsByDay:        schedule.GroupByDay(streams, s.location(prefs)),
		AllStreamers:        s.engine.Streamers(all),
		AvailableCategories: s.engine.Categories(all),
		CategoryDetails:     s.categoryDetails(ctx, cred.AccessToken, all),
		IsLoading:           res.IsLoading,
		StaleRefreshFailed:  res.StaleRefreshFailed,
		Authenticated:       true,
		HasData:             res.HasValue,
	}
	if res.Err != nil {
		view.Err = res.Err
		resp := res.Err.ToResponse()
		view.Error = &resp
	}
	return view, nil
}

// Refetch discards cached results and reads again.
func (s *Service) Refetch(ctx context.Context, filters domain.Filters, sort domain.Sort) (*View, error) {
	s.agg.Invalidate()
	return s.View(ctx, filters, sort)
}

// Categories returns game metadata for every category in the current agenda.
func (s *Service) Categories(ctx context.Context) ([]domain.GameInfo, error) {
	cred, err := s.auth.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, apperrors.NotAuthenticatedError()
	}

	schedules := s.agg.Schedules(ctx, cred.AccessToken)
	if !schedules.HasValue {
		return nil, schedules.Err
	}

	games := s.agg.Categories(ctx, cred.AccessToken, domain.Flatten(schedules.Value))
	if !games.HasValue {
		return nil, games.Err
	}
	return games.Value, nil
}

// categoryDetails resolves box art for the agenda's categories. A failed
// lookup degrades to an empty list and never fails the view.
func (s *Service) categoryDetails(ctx context.Context, token string, streams []domain.Stream) []domain.GameInfo {
	games := s.agg.Categories(ctx, token, streams)
	if !games.HasValue {
		slog.WarnContext(ctx, "Failed to resolve category details", "error", games.Err)
		return []domain.GameInfo{}
	}
	return games.Value
}

func (s *Service) Preferences(ctx context.Context) (domain.Preferences, error) {
	prefs, err := s.prefs.Load(ctx)
	if err != nil {
		return domain.Preferences{}, err
	}
	if prefs == nil {
		return domain.DefaultPreferences(s.defaultTZ), nil
	}
	return *prefs, nil
}

// SavePreferences validates and stores prefs, returning what was stored.
func (s *Service) SavePreferences(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	if prefs.Timezone == "" {
		prefs.Timezone = s.defaultTZ
	}
	if _, err := time.LoadLocation(prefs.Timezone); err != nil {
		return domain.Preferences{}, apperrors.ValidationError("unknown timezone").WithField("timezone", prefs.Timezone)
	}
	if prefs.Theme == "" {
		prefs.Theme = "system"
	}
	if !slices.Contains(validThemes, prefs.Theme) {
		return domain.Preferences{}, apperrors.ValidationError("theme must be light, dark or system").WithField("theme", prefs.Theme)
	}
	if prefs.Favorites == nil {
		prefs.Favorites = []string{}
	}

	if err := s.prefs.Save(ctx, prefs); err != nil {
		return domain.Preferences{}, err
	}
	return prefs, nil
}

func (s *Service) loadPreferences(ctx context.Context) domain.Preferences {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load preferences, using defaults", "error", err)
		return domain.DefaultPreferences(s.defaultTZ)
	}
	return prefs
}

func (s *Service) location(prefs domain.Preferences) *time.Location {
	for _, tz := range []string{prefs.Timezone, s.defaultTZ} {
		if tz == "" {
			continue
		}
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

func unauthenticatedView() *View {
	err := apperrors.NotAuthenticatedError()
	resp := err.ToResponse()
	return &View{
		Streams:             []domain.Stream{},
		StreamsByDay:        []schedule.DayGroup{},
		AllStreamers:        []schedule.StreamerSummary{},
		AvailableCategories: []string{},
		CategoryDetails:     []domain.GameInfo{},
		Error:               &resp,
		Err:                 err,
	}
}
