package schedule

import (
	"slices"

	"github.com/pscheid92/streamagenda/internal/domain"
	"golang.org/x/text/collate"
)

type StreamerSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Streamers lists each creator once, ordered with a loose (base letter)
// collation so that accents and case do not split neighbours.
func (e *Engine) Streamers(streams []domain.Stream) []StreamerSummary {
	seen := make(map[string]int)
	out := []StreamerSummary{}
	for _, s := range streams {
		if i, ok := seen[s.StreamerName]; ok {
			if out[i].Avatar == "" {
				out[i].Avatar = s.StreamerAvatar
			}
			continue
		}
		seen[s.StreamerName] = len(out)
		out = append(out, StreamerSummary{ID: s.StreamerID, Name: s.StreamerName, Avatar: s.StreamerAvatar})
	}

	c := collate.New(e.lang, collate.Loose)
	slices.SortStableFunc(out, func(a, b StreamerSummary) int { return c.CompareString(a.Name, b.Name) })
	return out
}

// Categories returns the distinct, non-empty game names in collation order.
func (e *Engine) Categories(streams []domain.Stream) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range streams {
		name := s.GameName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	c := collate.New(e.lang)
	c.SortStrings(out)
	return out
}
