package domain

import (
	"context"
	"time"
)

// ScheduleTTL is the freshness window of a cached schedule record.
const ScheduleTTL = time.Hour

type Game struct {
	Name string `json:"name"`
}

// Stream is one planned broadcast segment of a creator.
type Stream struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Game           *Game      `json:"game,omitempty"`
	StreamerID     string     `json:"streamer_id"`
	StreamerName   string     `json:"streamer_name"`
	StreamerAvatar string     `json:"streamer_avatar,omitempty"`
}

// GameName returns the category name or "" when the segment has none.
func (s Stream) GameName() string {
	if s.Game == nil {
		return ""
	}
	return s.Game.Name
}

// EffectiveEnd is the end time, or the start time for open-ended segments.
func (s Stream) EffectiveEnd() time.Time {
	if s.EndTime != nil {
		return *s.EndTime
	}
	return s.StartTime
}

// Schedule is the full record of one creator. It is always replaced whole.
type Schedule struct {
	StreamerID  string    `json:"streamer_id"`
	Streams     []Stream  `json:"streams"`
	LastUpdated time.Time `json:"last_updated"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewSchedule stamps LastUpdated and ExpiresAt from now.
func NewSchedule(streamerID string, streams []Stream, now time.Time) Schedule {
	if streams == nil {
		streams = []Stream{}
	}
	return Schedule{
		StreamerID:  streamerID,
		Streams:     streams,
		LastUpdated: now,
		ExpiresAt:   now.Add(ScheduleTTL),
	}
}

func (s *Schedule) Fresh(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// WithAvatar returns a copy with avatar stamped on every stream.
func (s Schedule) WithAvatar(avatar string) Schedule {
	streams := make([]Stream, len(s.Streams))
	for i, st := range s.Streams {
		st.StreamerAvatar = avatar
		streams[i] = st
	}
	s.Streams = streams
	return s
}

// ScheduleCache is the durable per-creator schedule store.
// Get returns nil, nil for an unknown creator.
type ScheduleCache interface {
	Get(ctx context.Context, streamerID string) (*Schedule, error)
	Put(ctx context.Context, streamerID string, schedule Schedule) error
	Delete(ctx context.Context, streamerID string) error
}

// GameInfo is category metadata with a sized box art URL.
type GameInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

type UserProfile struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Flatten concatenates every schedule's streams in schedule order.
func Flatten(schedules []Schedule) []Stream {
	n := 0
	for _, s := range schedules {
		n += len(s.Streams)
	}
	out := make([]Stream, 0, n)
	for _, s := range schedules {
		out = append(out, s.Streams...)
	}
	return out
}
