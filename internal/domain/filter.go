package domain

import "time"

type SortField string

const (
	SortByStartTime    SortField = "startTime"
	SortByStreamerName SortField = "streamerName"
	SortByCategory     SortField = "category"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type Sort struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort orders by start time, earliest first.
var DefaultSort = Sort{Field: SortByStartTime, Direction: Ascending}

func (s Sort) Valid() bool {
	switch s.Field {
	case SortByStartTime, SortByStreamerName, SortByCategory:
	default:
		return false
	}
	return s.Direction == Ascending || s.Direction == Descending
}

// Filters are the transient view criteria. FavoriteIDs is resolved from
// preferences by the application layer when Favorites is set.
type Filters struct {
	SearchTerm  string     `json:"search_term,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
	Streamers   []string   `json:"streamers,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Favorites   bool       `json:"favorites,omitempty"`
	FavoriteIDs []string   `json:"-"`
}
