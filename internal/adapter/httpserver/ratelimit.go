package httpserver

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"golang.org/x/time/rate"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits each client IP to ratePerSecond with the given burst.
// Rejections carry a Retry-After of one token interval.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	retryAfter := retryAfterSeconds(ratePerSecond)

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			resp := apperrors.ErrorResponse{
				Error:     "rate limit exceeded",
				Code:      apperrors.CodeRateLimit,
				Type:      apperrors.TypeRateLimited,
				Retryable: true,
				Context:   map[string]any{"retry_after": retryAfter},
			}
			if err := c.JSON(http.StatusTooManyRequests, resp); err != nil {
				return fmt.Errorf("failed to send JSON response: %w", err)
			}
			return nil
		},
	})
}

func retryAfterSeconds(ratePerSecond float64) int {
	if ratePerSecond <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/ratePerSecond)))
}
