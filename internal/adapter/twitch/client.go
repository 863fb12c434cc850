package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/pscheid92/streamagenda/internal/platform/version"
	"golang.org/x/time/rate"
)

const (
	defaultMaxFollowPages = 50
	defaultConcurrency    = 8
	defaultHTTPTimeout    = 10 * time.Second
	pageSize              = 100
	gamesBatchSize        = 100
	boxArtSize            = "40"
)

type Config struct {
	ClientID       string
	RedirectURI    string
	APIBaseURL     string
	AuthBaseURL    string
	HTTPTimeout    time.Duration
	MaxFollowPages int
	Concurrency    int
	// RatePerSecond throttles every outgoing call. Zero disables throttling.
	RatePerSecond float64
}

// Client talks to the Helix API and the OAuth endpoints. Schedules are read
// through cache, which may be nil.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   domain.ScheduleCache
	clock   clockwork.Clock
	metrics *metrics.TwitchMetrics
}

var _ domain.ScheduleSource = (*Client)(nil)
var _ domain.TokenValidator = (*Client)(nil)

func NewClient(cfg Config, cache domain.ScheduleCache, clock clockwork.Clock, m *metrics.TwitchMetrics) *Client {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	if cfg.MaxFollowPages <= 0 {
		cfg.MaxFollowPages = defaultMaxFollowPages
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.AuthBaseURL = strings.TrimRight(cfg.AuthBaseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), int(math.Ceil(cfg.RatePerSecond)))
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		limiter: limiter,
		cache:   cache,
		clock:   clock,
		metrics: m,
	}
}

// helixError is the error body Helix returns on non-2xx responses.
type helixError struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// get performs an authenticated Helix GET and decodes the body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values, token string, out any) error {
	target := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apperrors.RequestSetupError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", c.cfg.ClientID)

	resp, err := c.do(ctx, endpoint, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.ExternalError("invalid response from Twitch", err).WithField("endpoint", endpoint)
	}
	return nil
}

// do throttles, sends, and turns any non-2xx status into a classified error.
// On success the caller owns the response body.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.observe(endpoint, apperrors.CodeNetwork, 0)
		return nil, apperrors.Classify(err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	start := c.clock.Now()
	resp, err := c.http.Do(req)
	elapsed := c.clock.Since(start)
	if err != nil {
		classified := apperrors.Classify(err)
		c.observe(endpoint, classified.Code, elapsed)
		return nil, classified
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.observe(endpoint, "ok", elapsed)
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := apperrors.FromHTTPStatus(resp.StatusCode, resp.Header, responseMessage(resp)).
		WithField("endpoint", endpoint)
	c.observe(endpoint, apiErr.Code, elapsed)
	slog.DebugContext(ctx, "Twitch request failed", "endpoint", endpoint, "status", resp.StatusCode, "code", apiErr.Code)
	return nil, apiErr
}

func responseMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var he helixError
	if err := json.Unmarshal(body, &he); err == nil && he.Message != "" {
		return he.Message
	}
	return fmt.Sprintf("Twitch returned status %d", resp.StatusCode)
}

func (c *Client) observe(endpoint, code string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RequestsTotal.WithLabelValues(endpoint, code).Inc()
	if elapsed > 0 {
		c.metrics.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}
