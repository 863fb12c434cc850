package schedule

import (
	"testing"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func stream(id, creator, game string, start time.Time) domain.Stream {
	s := domain.Stream{
		ID:           id,
		StartTime:    start,
		StreamerID:   "id-" + creator,
		StreamerName: creator,
	}
	if game != "" {
		s.Game = &domain.Game{Name: game}
	}
	return s
}

func ids(streams []domain.Stream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.ID
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestFilter_Conjunction(t *testing.T) {
	a := stream("A", "x", "game1", now.Add(2*time.Hour))
	b := stream("B", "y", "game2", now.Add(3*time.Hour))
	c := stream("C", "x", "game1", now.Add(-3*time.Hour))

	out := Filter([]domain.Stream{a, b, c}, domain.Filters{Streamers: []string{"x"}}, now)

	assert.Equal(t, []string{"A"}, ids(out))
}

func TestFilter_PastExclusionUsesEndTime(t *testing.T) {
	running := stream("running", "x", "", now.Add(-time.Hour))
	running.EndTime = ptr(now.Add(time.Hour))

	endedJustNow := stream("ended", "x", "", now.Add(-2*time.Hour))
	endedJustNow.EndTime = ptr(now.Add(-time.Nanosecond))

	endsNow := stream("boundary", "x", "", now.Add(-time.Hour))
	endsNow.EndTime = ptr(now)

	noEndStarted := stream("open", "x", "", now.Add(-time.Minute))

	out := Filter([]domain.Stream{running, endedJustNow, endsNow, noEndStarted}, domain.Filters{}, now)

	assert.Equal(t, []string{"running", "boundary"}, ids(out))
}

func TestFilter_SearchIsCaseInsensitiveOnCreatorName(t *testing.T) {
	streams := []domain.Stream{
		stream("1", "ZeratoR", "", now.Add(time.Hour)),
		stream("2", "Ponce", "Zelda", now.Add(time.Hour)),
	}

	out := Filter(streams, domain.Filters{SearchTerm: "zera"}, now)

	assert.Equal(t, []string{"1"}, ids(out))
}

func TestFilter_CategoryRequiresGame(t *testing.T) {
	streams := []domain.Stream{
		stream("with", "x", "Just Chatting", now.Add(time.Hour)),
		stream("without", "x", "", now.Add(time.Hour)),
		stream("other", "x", "Chess", now.Add(time.Hour)),
	}

	out := Filter(streams, domain.Filters{Categories: []string{"Just Chatting"}}, now)
	assert.Equal(t, []string{"with"}, ids(out))

	out = Filter(streams, domain.Filters{}, now)
	assert.Len(t, out, 3)
}

func TestFilter_DateRangeIsInclusive(t *testing.T) {
	start := now.Add(24 * time.Hour)
	end := now.Add(48 * time.Hour)
	streams := []domain.Stream{
		stream("before", "x", "", start.Add(-time.Second)),
		stream("atStart", "x", "", start),
		stream("inside", "x", "", start.Add(time.Hour)),
		stream("atEnd", "x", "", end),
		stream("after", "x", "", end.Add(time.Second)),
	}

	out := Filter(streams, domain.Filters{StartDate: &start, EndDate: &end}, now)

	assert.Equal(t, []string{"atStart", "inside", "atEnd"}, ids(out))
}

func TestFilter_StreamerAllowListMatchesNameOrID(t *testing.T) {
	streams := []domain.Stream{
		stream("1", "alpha", "", now.Add(time.Hour)),
		stream("2", "beta", "", now.Add(time.Hour)),
		stream("3", "gamma", "", now.Add(time.Hour)),
	}

	out := Filter(streams, domain.Filters{Streamers: []string{"alpha", "id-gamma"}}, now)

	assert.Equal(t, []string{"1", "3"}, ids(out))
}

func TestFilter_Favorites(t *testing.T) {
	streams := []domain.Stream{
		stream("1", "alpha", "", now.Add(time.Hour)),
		stream("2", "beta", "", now.Add(time.Hour)),
	}

	out := Filter(streams, domain.Filters{Favorites: true, FavoriteIDs: []string{"id-beta"}}, now)
	assert.Equal(t, []string{"2"}, ids(out))

	out = Filter(streams, domain.Filters{Favorites: true}, now)
	assert.Empty(t, out)

	out = Filter(streams, domain.Filters{FavoriteIDs: []string{"id-beta"}}, now)
	assert.Len(t, out, 2)
}

func TestSort_StartTimeIsStable(t *testing.T) {
	e := NewEngine(language.English)
	same := now.Add(time.Hour)
	streams := []domain.Stream{
		stream("late", "a", "", now.Add(2*time.Hour)),
		stream("first", "b", "", same),
		stream("second", "c", "", same),
	}

	e.Sort(streams, domain.Sort{Field: domain.SortByStartTime, Direction: domain.Ascending})
	assert.Equal(t, []string{"first", "second", "late"}, ids(streams))

	e.Sort(streams, domain.Sort{Field: domain.SortByStartTime, Direction: domain.Descending})
	assert.Equal(t, []string{"late", "first", "second"}, ids(streams))
}

func TestSort_ComparesInstantsAcrossZones(t *testing.T) {
	e := NewEngine(language.English)
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	earlier := stream("earlier", "a", "", time.Date(2024, 6, 11, 10, 0, 0, 0, paris))
	later := stream("later", "b", "", time.Date(2024, 6, 11, 9, 0, 0, 0, time.UTC))
	streams := []domain.Stream{later, earlier}

	e.Sort(streams, domain.DefaultSort)

	assert.Equal(t, []string{"earlier", "later"}, ids(streams))
}

func TestSort_StreamerNameIsLocaleAware(t *testing.T) {
	e := NewEngine(language.French)
	streams := []domain.Stream{
		stream("1", "zoé", "", now.Add(time.Hour)),
		stream("2", "Émile", "", now.Add(time.Hour)),
		stream("3", "bob", "", now.Add(time.Hour)),
	}

	e.Sort(streams, domain.Sort{Field: domain.SortByStreamerName, Direction: domain.Ascending})

	assert.Equal(t, []string{"3", "2", "1"}, ids(streams))
}

func TestSort_CategoryDescending(t *testing.T) {
	e := NewEngine(language.English)
	streams := []domain.Stream{
		stream("chess", "a", "Chess", now.Add(time.Hour)),
		stream("none", "b", "", now.Add(time.Hour)),
		stream("art", "c", "Art", now.Add(time.Hour)),
	}

	e.Sort(streams, domain.Sort{Field: domain.SortByCategory, Direction: domain.Descending})

	assert.Equal(t, []string{"chess", "art", "none"}, ids(streams))
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	e := NewEngine(language.English)
	streams := []domain.Stream{
		stream("b", "x", "", now.Add(2*time.Hour)),
		stream("a", "x", "", now.Add(time.Hour)),
	}

	out := e.Apply(streams, domain.Filters{}, domain.DefaultSort, now)

	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Equal(t, []string{"b", "a"}, ids(streams))
}
