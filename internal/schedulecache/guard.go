// Package schedulecache guards the durable schedule store with a circuit
// breaker: once writes start failing, reads are treated as misses so that
// callers fall back to the remote API instead of trusting a cache that may
// have stopped receiving updates.
package schedulecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/sony/gobreaker"
)

const (
	component = "schedule_cache"
	layer     = "schedule"
)

type Options struct {
	// FailureThreshold is the number of consecutive write failures that
	// opens the breaker.
	FailureThreshold uint32
	// Cooldown is how long the breaker stays open before a probe write.
	Cooldown time.Duration
}

var DefaultOptions = Options{
	FailureThreshold: 1,
	Cooldown:         30 * time.Second,
}

type purger interface {
	PurgeExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Guard struct {
	inner   domain.ScheduleCache
	cb      *gobreaker.CircuitBreaker
	clock   clockwork.Clock
	cache   *metrics.CacheMetrics
	storage *metrics.StorageMetrics
}

var _ domain.ScheduleCache = (*Guard)(nil)

func NewGuard(inner domain.ScheduleCache, opts Options, clock clockwork.Clock, cache *metrics.CacheMetrics, storage *metrics.StorageMetrics) *Guard {
	g := &Guard{inner: inner, clock: clock, cache: cache, storage: storage}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        component,
		MaxRequests: 1,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: g.onStateChange,
		IsSuccessful:  countsAsSuccess,
	})
	storage.BreakerState.WithLabelValues(component).Set(0)
	return g
}

// countsAsSuccess keeps caller cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (g *Guard) onStateChange(_ string, from, to gobreaker.State) {
	slog.Warn("Circuit breaker state changed", "component", component, "from", from.String(), "to", to.String())
	g.storage.BreakerStateChanges.WithLabelValues(component, to.String()).Inc()
	g.storage.BreakerState.WithLabelValues(component).Set(stateToFloat(to))
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Reliable reports whether reads from the store are currently trusted.
func (g *Guard) Reliable() bool {
	return g.cb.State() == gobreaker.StateClosed
}

// Check is a readiness probe: it fails while the breaker is not closed.
func (g *Guard) Check(_ context.Context) error {
	if state := g.cb.State(); state != gobreaker.StateClosed {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}

// Get never fails: an unreliable store or a read error is a miss.
func (g *Guard) Get(ctx context.Context, streamerID string) (*domain.Schedule, error) {
	if !g.Reliable() {
		g.cache.Misses.WithLabelValues(layer).Inc()
		return nil, nil
	}

	s, err := g.inner.Get(ctx, streamerID)
	if err != nil {
		slog.WarnContext(ctx, "Schedule cache read failed, treating as miss", "streamer_id", streamerID, "error", err)
		g.cache.Misses.WithLabelValues(layer).Inc()
		return nil, nil
	}
	if s == nil {
		g.cache.Misses.WithLabelValues(layer).Inc()
		return nil, nil
	}

	g.cache.Hits.WithLabelValues(layer).Inc()
	return s, nil
}

func (g *Guard) Put(ctx context.Context, streamerID string, s domain.Schedule) error {
	_, err := g.cb.Execute(func() (any, error) {
		return nil, g.inner.Put(ctx, streamerID, s)
	})
	if err != nil {
		g.cache.WriteFailures.Inc()
		return apperrors.StorageError("set", err).WithField("streamer_id", streamerID)
	}
	return nil
}

func (g *Guard) Delete(ctx context.Context, streamerID string) error {
	if err := g.inner.Delete(ctx, streamerID); err != nil {
		return apperrors.StorageError("delete", err).WithField("streamer_id", streamerID)
	}
	return nil
}

// IsBreakerOpen reports whether err was produced by a rejected write.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// StartPurgeTimer periodically deletes records that expired more than
// retention ago. It is a no-op when the store cannot purge.
// Returns a stop function that should be called to clean up the goroutine.
func (g *Guard) StartPurgeTimer(interval, retention time.Duration) func() {
	p, ok := g.inner.(purger)
	if !ok {
		return func() {}
	}

	ticker := g.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				n, err := p.PurgeExpiredBefore(ctx, g.clock.Now().Add(-retention))
				cancel()
				if err != nil {
					slog.Warn("Failed to purge expired schedules", "error", err)
					continue
				}
				if n > 0 {
					slog.Debug("Purged expired schedules", "count", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
