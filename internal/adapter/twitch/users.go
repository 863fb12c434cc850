package twitch

import (
	"context"
	"net/url"

	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

type usersResponse struct {
	Data []struct {
		ID              string `json:"id"`
		Login           string `json:"login"`
		DisplayName     string `json:"display_name"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

// GetCurrentUser returns the id of the token's owner.
func (c *Client) GetCurrentUser(ctx context.Context, token string) (string, error) {
	user, err := c.fetchUser(ctx, token, nil)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (c *Client) GetUserByID(ctx context.Context, token, id string) (*domain.UserProfile, error) {
	return c.fetchUser(ctx, token, url.Values{"id": {id}})
}

func (c *Client) fetchUser(ctx context.Context, token string, query url.Values) (*domain.UserProfile, error) {
	var resp usersResponse
	if err := c.get(ctx, "users", "/users", query, token, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.NotFoundError("user not found")
	}

	u := resp.Data[0]
	return &domain.UserProfile{
		ID:              u.ID,
		Login:           u.Login,
		DisplayName:     u.DisplayName,
		ProfileImageURL: u.ProfileImageURL,
	}, nil
}
