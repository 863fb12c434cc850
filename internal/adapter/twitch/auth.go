package twitch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

const oauthScopes = "user:read:email user:read:follows"

// AuthorizeURL builds the implicit-grant URL. state is echoed back in the
// callback fragment.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("response_type", "token")
	params.Set("scope", oauthScopes)
	if state != "" {
		params.Set("state", state)
	}
	return c.cfg.AuthBaseURL + "/authorize?" + params.Encode()
}

// ParseFragment reads the callback URL fragment. A missing expires_in falls
// back to domain.DefaultTokenLifetime.
func (c *Client) ParseFragment(fragment string) (domain.Credential, error) {
	params, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return domain.Credential{}, apperrors.AuthError("malformed authentication response")
	}

	if reason := params.Get("error"); reason != "" {
		msg := params.Get("error_description")
		if msg == "" {
			msg = reason
		}
		return domain.Credential{}, apperrors.AuthError("authorization denied: " + msg)
	}

	token := params.Get("access_token")
	if token == "" {
		return domain.Credential{}, apperrors.AuthError("token not found")
	}

	lifetime := domain.DefaultTokenLifetime
	if raw := params.Get("expires_in"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			lifetime = time.Duration(secs) * time.Second
		}
	}

	return domain.Credential{
		AccessToken:     token,
		IsAuthenticated: true,
		ExpiresIn:       lifetime,
		ObtainedAt:      c.clock.Now(),
	}, nil
}

// ValidateToken asks the identity provider whether token is still live.
// Only a 401 means "invalid"; other failures are errors.
func (c *Client) ValidateToken(ctx context.Context, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AuthBaseURL+"/validate", nil)
	if err != nil {
		return false, apperrors.RequestSetupError(err)
	}
	req.Header.Set("Authorization", "OAuth "+token)

	resp, err := c.do(ctx, "validate", req)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeAuthExpired) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}
