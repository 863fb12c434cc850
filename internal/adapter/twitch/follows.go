package twitch

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

type followedResponse struct {
	Data []struct {
		BroadcasterID string `json:"broadcaster_id"`
	} `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// ListFollowedCreators walks every page of the caller's followed channels.
// The walk ends on an absent or repeated cursor, or after MaxFollowPages.
func (c *Client) ListFollowedCreators(ctx context.Context, token string) ([]string, error) {
	userID, err := c.GetCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	var (
		ids    []string
		seen   = make(map[string]struct{})
		cursor string
		pages  int
	)

	for pages < c.cfg.MaxFollowPages {
		query := url.Values{
			"user_id": {userID},
			"first":   {strconv.Itoa(pageSize)},
		}
		if cursor != "" {
			query.Set("after", cursor)
		}

		var resp followedResponse
		if err := c.get(ctx, "channels_followed", "/channels/followed", query, token, &resp); err != nil {
			return nil, err
		}
		pages++

		for _, f := range resp.Data {
			if _, dup := seen[f.BroadcasterID]; dup {
				continue
			}
			seen[f.BroadcasterID] = struct{}{}
			ids = append(ids, f.BroadcasterID)
		}

		next := resp.Pagination.Cursor
		if next == "" || next == cursor {
			break
		}
		cursor = next

		if pages == c.cfg.MaxFollowPages {
			slog.WarnContext(ctx, "Followed channel enumeration truncated", "pages", pages, "creators", len(ids))
		}
	}

	if c.metrics != nil {
		c.metrics.FollowPages.Observe(float64(pages))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
