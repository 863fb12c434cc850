package twitch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"golang.org/x/sync/errgroup"
)

type scheduleResponse struct {
	Data *struct {
		BroadcasterID   string `json:"broadcaster_id"`
		BroadcasterName string `json:"broadcaster_name"`
		Segments        []struct {
			ID        string     `json:"id"`
			Title     string     `json:"title"`
			StartTime time.Time  `json:"start_time"`
			EndTime   *time.Time `json:"end_time"`
			Category  *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"category"`
		} `json:"segments"`
	} `json:"data"`
}

// GetSchedule returns the creator's schedule, served from cache when a fresh
// record exists. The avatar is refreshed on every call and the record is
// written back before returning.
func (c *Client) GetSchedule(ctx context.Context, token, streamerID string) (*domain.Schedule, error) {
	base, err := c.scheduleBase(ctx, token, streamerID)
	if err != nil {
		return nil, err
	}

	profile, err := c.GetUserByID(ctx, token, streamerID)
	if err != nil {
		return nil, err
	}
	schedule := base.WithAvatar(profile.ProfileImageURL)

	if c.cache != nil {
		if err := c.cache.Put(ctx, streamerID, schedule); err != nil {
			slog.WarnContext(ctx, "Failed to persist schedule", "streamer_id", streamerID, "error", err)
		}
	}

	return &schedule, nil
}

func (c *Client) scheduleBase(ctx context.Context, token, streamerID string) (domain.Schedule, error) {
	now := c.clock.Now()

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, streamerID)
		if err == nil && cached != nil && cached.Fresh(now) {
			return *cached, nil
		}
	}

	var resp scheduleResponse
	err := c.get(ctx, "schedule", "/schedule", url.Values{"broadcaster_id": {streamerID}}, token, &resp)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return domain.NewSchedule(streamerID, nil, now), nil
		}
		return domain.Schedule{}, err
	}

	if resp.Data == nil || len(resp.Data.Segments) == 0 {
		return domain.NewSchedule(streamerID, nil, now), nil
	}

	streams := make([]domain.Stream, 0, len(resp.Data.Segments))
	for _, seg := range resp.Data.Segments {
		stream := domain.Stream{
			ID:           seg.ID,
			Title:        seg.Title,
			StartTime:    seg.StartTime,
			EndTime:      seg.EndTime,
			StreamerID:   streamerID,
			StreamerName: resp.Data.BroadcasterName,
		}
		if seg.Category != nil {
			stream.Game = &domain.Game{Name: seg.Category.Name}
		}
		streams = append(streams, stream)
	}
	return domain.NewSchedule(streamerID, streams, now), nil
}

// statusOf extracts the upstream HTTP status from a classified error, or 0.
func statusOf(err error) int {
	var apiErr *apperrors.Error
	if !errors.As(err, &apiErr) {
		return 0
	}
	status, _ := apiErr.Context["status"].(int)
	return status
}

// GetAllSchedules fetches every followed creator's schedule with bounded
// concurrency. Any single failure fails the whole call. Results keep the
// follow order.
func (c *Client) GetAllSchedules(ctx context.Context, token string) ([]domain.Schedule, error) {
	ids, err := c.ListFollowedCreators(ctx, token)
	if err != nil {
		return nil, err
	}

	schedules := make([]domain.Schedule, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, id := range ids {
		g.Go(func() error {
			s, err := c.GetSchedule(gctx, token, id)
			if err != nil {
				return err
			}
			schedules[i] = *s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return schedules, nil
}
