package twitch

import (
	"context"
	"net/url"
	"strings"

	"github.com/pscheid92/streamagenda/internal/domain"
)

type gamesResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		BoxArtURL string `json:"box_art_url"`
	} `json:"data"`
}

// GetGames resolves category names to metadata, 100 names per request.
func (c *Client) GetGames(ctx context.Context, token string, names []string) ([]domain.GameInfo, error) {
	games := []domain.GameInfo{}
	if len(names) == 0 {
		return games, nil
	}

	for start := 0; start < len(names); start += gamesBatchSize {
		end := min(start+gamesBatchSize, len(names))

		var resp gamesResponse
		if err := c.get(ctx, "games", "/games", url.Values{"name": names[start:end]}, token, &resp); err != nil {
			return nil, err
		}

		for _, g := range resp.Data {
			games = append(games, domain.GameInfo{
				ID:        g.ID,
				Name:      g.Name,
				BoxArtURL: sizeBoxArt(g.BoxArtURL),
			})
		}
	}
	return games, nil
}

func sizeBoxArt(template string) string {
	return strings.NewReplacer("{width}", boxArtSize, "{height}", boxArtSize).Replace(template)
}
