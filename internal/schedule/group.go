package schedule

import (
	"slices"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
)

const (
	dayKeyLayout  = "2006-01-02"
	slotKeyLayout = "15:04"
)

// Slot is every stream of a day starting at the same wall-clock minute.
type Slot struct {
	Time    string          `json:"time"`
	Streams []domain.Stream `json:"streams"`
}

type DayGroup struct {
	Day     string          `json:"day"`
	Streams []domain.Stream `json:"streams"`
	Slots   []Slot          `json:"slots"`
}

// GroupByDay partitions streams by calendar day in loc. Days come out in
// ascending order, slots within a day ascending by start time of day; streams
// keep their input order inside a day and inside a slot.
func GroupByDay(streams []domain.Stream, loc *time.Location) []DayGroup {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[string][]domain.Stream)
	for _, s := range streams {
		key := s.StartTime.In(loc).Format(dayKeyLayout)
		byDay[key] = append(byDay[key], s)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	// yyyy-MM-dd sorts chronologically as a string
	slices.Sort(days)

	groups := make([]DayGroup, 0, len(days))
	for _, day := range days {
		groups = append(groups, DayGroup{
			Day:     day,
			Streams: byDay[day],
			Slots:   groupBySlot(byDay[day], loc),
		})
	}
	return groups
}

func groupBySlot(streams []domain.Stream, loc *time.Location) []Slot {
	index := make(map[string]int)
	var slots []Slot
	for _, s := range streams {
		key := s.StartTime.In(loc).Format(slotKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(slots)
			index[key] = i
			slots = append(slots, Slot{Time: key})
		}
		slots[i].Streams = append(slots[i].Streams, s)
	}

	slices.SortStableFunc(slots, func(a, b Slot) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return slots
}
