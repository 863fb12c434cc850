package schedule

import (
	"testing"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestGroupByDay_AscendingDaysAndSlots(t *testing.T) {
	day1 := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	streams := []domain.Stream{
		stream("d2-evening", "a", "", day2.Add(20*time.Hour)),
		stream("d1-evening-1", "b", "", day1.Add(20*time.Hour)),
		stream("d1-morning", "c", "", day1.Add(9*time.Hour)),
		stream("d1-evening-2", "d", "", day1.Add(20*time.Hour)),
	}

	groups := GroupByDay(streams, time.UTC)

	require.Len(t, groups, 2)
	assert.Equal(t, "2024-06-11", groups[0].Day)
	assert.Equal(t, "2024-06-12", groups[1].Day)
	assert.Equal(t, []string{"d1-evening-1", "d1-morning", "d1-evening-2"}, ids(groups[0].Streams))

	slots := groups[0].Slots
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "20:00", slots[1].Time)
	assert.Equal(t, []string{"d1-evening-1", "d1-evening-2"}, ids(slots[1].Streams))
}

func TestGroupByDay_UsesSingleZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on the 11th is 05:00 on the 12th in Tokyo
	s := stream("late", "a", "", time.Date(2024, 6, 11, 20, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-06-11", GroupByDay([]domain.Stream{s}, time.UTC)[0].Day)

	tokyoGroups := GroupByDay([]domain.Stream{s}, tokyo)
	assert.Equal(t, "2024-06-12", tokyoGroups[0].Day)
	assert.Equal(t, "05:00", tokyoGroups[0].Slots[0].Time)
}

func TestGroupByDay_Empty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, nil))
}

func TestStreamers_UniqueLooselyCollated(t *testing.T) {
	e := NewEngine(language.French)
	streams := []domain.Stream{
		stream("1", "Zed", "", now),
		stream("2", "éric", "", now),
		stream("3", "Zed", "", now),
		stream("4", "Alice", "", now),
	}
	streams[2].StreamerAvatar = "https://img/zed.png"

	out := e.Streamers(streams)

	require.Len(t, out, 3)
	assert.Equal(t, "Alice", out[0].Name)
	assert.Equal(t, "éric", out[1].Name)
	assert.Equal(t, "Zed", out[2].Name)
	assert.Equal(t, "https://img/zed.png", out[2].Avatar)
	assert.Equal(t, "id-Zed", out[2].ID)
}

func TestCategories_DistinctNonEmpty(t *testing.T) {
	e := NewEngine(language.English)
	streams := []domain.Stream{
		stream("1", "a", "Chess", now),
		stream("2", "a", "", now),
		stream("3", "a", "Art", now),
		stream("4", "a", "Chess", now),
	}

	assert.Equal(t, []string{"Art", "Chess"}, e.Categories(streams))
	assert.Empty(t, e.Categories(nil))
}
