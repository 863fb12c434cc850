package schedule

import (
	"slices"
	"strings"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine holds the collation language. Collators are not safe for concurrent
// use, so each call builds its own.
type Engine struct {
	lang language.Tag
}

func NewEngine(lang language.Tag) *Engine {
	return &Engine{lang: lang}
}

// Apply filters then stably sorts streams. The input slice is not modified.
func (e *Engine) Apply(streams []domain.Stream, filters domain.Filters, sort domain.Sort, now time.Time) []domain.Stream {
	out := Filter(streams, filters, now)
	e.Sort(out, sort)
	return out
}

// Filter keeps streams matching every active criterion. Streams that ended
// before now are always dropped.
func Filter(streams []domain.Stream, f domain.Filters, now time.Time) []domain.Stream {
	m := newMatcher(f)
	out := make([]domain.Stream, 0, len(streams))
	for _, s := range streams {
		if m.match(s, now) {
			out = append(out, s)
		}
	}
	return out
}

type matcher struct {
	streamers  map[string]struct{}
	categories map[string]struct{}
	favorites  map[string]struct{}
	search     string
	start, end *time.Time
	onlyFavs   bool
}

func newMatcher(f domain.Filters) matcher {
	return matcher{
		streamers:  toSet(f.Streamers),
		categories: toSet(f.Categories),
		favorites:  toSet(f.FavoriteIDs),
		search:     strings.ToLower(f.SearchTerm),
		start:      f.StartDate,
		end:        f.EndDate,
		onlyFavs:   f.Favorites,
	}
}

func (m matcher) match(s domain.Stream, now time.Time) bool {
	if s.EffectiveEnd().Before(now) {
		return false
	}

	if len(m.streamers) > 0 && !contains(m.streamers, s.StreamerName) && !contains(m.streamers, s.StreamerID) {
		return false
	}

	if m.search != "" && !strings.Contains(strings.ToLower(s.StreamerName), m.search) {
		return false
	}

	if len(m.categories) > 0 && (s.Game == nil || !contains(m.categories, s.Game.Name)) {
		return false
	}

	if m.start != nil && s.StartTime.Before(*m.start) {
		return false
	}
	if m.end != nil && s.StartTime.After(*m.end) {
		return false
	}

	if m.onlyFavs && !contains(m.favorites, s.StreamerID) {
		return false
	}

	return true
}

// Sort orders streams in place. Equal keys keep their relative order in both
// directions.
func (e *Engine) Sort(streams []domain.Stream, sort domain.Sort) {
	sign := 1
	if sort.Direction == domain.Descending {
		sign = -1
	}

	var cmp func(a, b domain.Stream) int
	switch sort.Field {
	case domain.SortByStreamerName:
		c := collate.New(e.lang)
		cmp = func(a, b domain.Stream) int { return c.CompareString(a.StreamerName, b.StreamerName) }
	case domain.SortByCategory:
		c := collate.New(e.lang)
		cmp = func(a, b domain.Stream) int { return c.CompareString(a.GameName(), b.GameName()) }
	default:
		cmp = func(a, b domain.Stream) int { return a.StartTime.Compare(b.StartTime) }
	}

	slices.SortStableFunc(streams, func(a, b domain.Stream) int { return sign * cmp(a, b) })
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func contains(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
