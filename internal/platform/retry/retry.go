// Package retry re-invokes failed operations with linearly increasing delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
)

type Action int

const (
	Stop  Action = iota // permanent error, abort immediately
	Retry               // transient error, linear backoff
	After               // rate-limited, wait for the upstream's reset hint
)

// Policy waits attempt*InitialBackoff between attempts. A rate-limit hint
// replaces that delay but is capped at RateLimitBackoff. A nil Clock means
// wall time.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	Clock            clockwork.Clock
	OnRetry          func(attempt int, err error, backoff time.Duration)
}

// DefaultPolicy is three attempts one, then two seconds apart.
var DefaultPolicy = Policy{
	MaxAttempts:      3,
	InitialBackoff:   time.Second,
	RateLimitBackoff: 30 * time.Second,
}

type Classify func(err error) Action

// hinted is satisfied by errors that know how long the upstream wants us to wait.
type hinted interface {
	RetryAfter() (time.Duration, bool)
}

// Do runs op until it succeeds, classify says Stop, or MaxAttempts is spent.
// A stopped error is wrapped in *PermanentError; an exhausted one carries the
// last attempt's error.
func Do[T any](ctx context.Context, p Policy, classify Classify, op func() (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		return zero, errors.New("retry policy needs at least one attempt")
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	for attempt := 1; ; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		action := classify(err)
		if action == Stop {
			return zero, &PermanentError{Err: err}
		}
		if attempt == p.MaxAttempts {
			return zero, fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, err)
		}

		wait := p.delay(attempt, action, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

func (p Policy) delay(attempt int, action Action, err error) time.Duration {
	if action != After {
		return time.Duration(attempt) * p.InitialBackoff
	}
	var h hinted
	if errors.As(err, &h) {
		if wait, ok := h.RetryAfter(); ok && wait < p.RateLimitBackoff {
			return wait
		}
	}
	return p.RateLimitBackoff
}

// ByRetryable classifies using the error taxonomy: rate limits wait for the
// reset hint, other retryable errors back off normally, the rest stop.
func ByRetryable(err error) Action {
	classified := apperrors.Classify(err)
	switch {
	case classified.Code == apperrors.CodeRateLimit:
		return After
	case classified.Retryable:
		return Retry
	default:
		return Stop
	}
}

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
