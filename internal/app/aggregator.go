package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/pscheid92/streamagenda/internal/domain"
	apperrors "github.com/pscheid92/streamagenda/internal/platform/errors"
	"github.com/pscheid92/streamagenda/internal/platform/retry"
	"golang.org/x/sync/singleflight"
)

const (
	schedulesKey     = "schedules"
	categoriesPrefix = "categories:"
)

type AggregatorOptions struct {
	StaleTime time.Duration
	GCTime    time.Duration
	Retry     retry.Policy
}

var DefaultAggregatorOptions = AggregatorOptions{
	StaleTime: 5 * time.Minute,
	GCTime:    30 * time.Minute,
	Retry:     retry.DefaultPolicy,
}

// Result is one read of a cached query.
type Result[T any] struct {
	Value              T
	HasValue           bool
	IsLoading          bool
	StaleRefreshFailed bool
	Err                *apperrors.Error
}

type entry struct {
	value              any
	hasValue           bool
	fetchedAt          time.Time
	lastAccess         time.Time
	err                error
	staleRefreshFailed bool
	invalidated        bool
	refreshing         bool
}

// Aggregator caches query results in memory. Reads of a stale entry return the
// old value and refresh it in the background; concurrent misses share a single
// fetch. Reset bumps an epoch so fetches started earlier are dropped on landing.
type Aggregator struct {
	source  domain.ScheduleSource
	clock   clockwork.Clock
	opts    AggregatorOptions
	metrics *metrics.CacheMetrics

	mu      sync.Mutex
	entries map[string]*entry
	epoch   uint64

	flights singleflight.Group
	bg      sync.WaitGroup
}

func NewAggregator(source domain.ScheduleSource, clock clockwork.Clock, opts AggregatorOptions, m *metrics.CacheMetrics) *Aggregator {
	return &Aggregator{
		source:  source,
		clock:   clock,
		opts:    opts,
		metrics: m,
		entries: make(map[string]*entry),
	}
}

// Schedules reads the aggregate of all followed creators' schedules.
func (a *Aggregator) Schedules(ctx context.Context, token string) Result[[]domain.Schedule] {
	return query(ctx, a, schedulesKey, func(ctx context.Context) ([]domain.Schedule, error) {
		return a.source.GetAllSchedules(ctx, token)
	})
}

// Categories resolves the game metadata of streams. The cache key follows the
// stream set, so a changed agenda gets its own entry.
func (a *Aggregator) Categories(ctx context.Context, token string, streams []domain.Stream) Result[[]domain.GameInfo] {
	names := gameNames(streams)
	if len(names) == 0 {
		return Result[[]domain.GameInfo]{Value: []domain.GameInfo{}, HasValue: true}
	}

	key := categoriesPrefix + streamSetHash(streams, names)
	return query(ctx, a, key, func(ctx context.Context) ([]domain.GameInfo, error) {
		return a.source.GetGames(ctx, token, names)
	})
}

// Invalidate forces the next read of every entry to fetch synchronously.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.entries {
		e.invalidated = true
	}
	a.inc(func(m *metrics.CacheMetrics) { m.Invalidations.Inc() })
}

// Reset drops every entry. Fetches in flight complete but their results are discarded.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = make(map[string]*entry)
	a.epoch++
	a.inc(func(m *metrics.CacheMetrics) { m.Entries.Set(0) })
}

// Wait blocks until background refreshes have finished.
func (a *Aggregator) Wait() {
	a.bg.Wait()
}

// StartEvictionTimer drops entries not read for GCTime. Call the returned
// func to stop it.
func (a *Aggregator) StartEvictionTimer(interval time.Duration) func() {
	ticker := a.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				a.evict()
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (a *Aggregator) evict() {
	now := a.clock.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for key, e := range a.entries {
		if e.refreshing || now.Sub(e.lastAccess) < a.opts.GCTime {
			continue
		}
		delete(a.entries, key)
		evicted++
	}

	if evicted > 0 {
		slog.Debug("Evicted idle query entries", "count", evicted)
	}
	a.inc(func(m *metrics.CacheMetrics) {
		m.Evictions.Add(float64(evicted))
		m.Entries.Set(float64(len(a.entries)))
	})
}

func (a *Aggregator) inc(fn func(m *metrics.CacheMetrics)) {
	if a.metrics != nil {
		fn(a.metrics)
	}
}

func query[T any](ctx context.Context, a *Aggregator, key string, fetch func(context.Context) (T, error)) Result[T] {
	now := a.clock.Now()

	a.mu.Lock()
	e := a.entries[key]
	epoch := a.epoch
	if e != nil {
		e.lastAccess = now
	}

	if e != nil && e.hasValue && !e.invalidated {
		res := Result[T]{Value: e.value.(T), HasValue: true, StaleRefreshFailed: e.staleRefreshFailed}
		if now.Sub(e.fetchedAt) >= a.opts.StaleTime {
			res.IsLoading = true
			if !e.refreshing {
				e.refreshing = true
				detached := context.WithoutCancel(ctx)
				a.bg.Go(func() {
					if _, err := load(detached, a, key, epoch, fetch); err != nil {
						slog.WarnContext(detached, "Background refresh failed", "key", key, "error", err)
					}
				})
			}
		}
		a.mu.Unlock()
		a.inc(func(m *metrics.CacheMetrics) { m.Hits.WithLabelValues("query").Inc() })
		return res
	}
	a.mu.Unlock()
	a.inc(func(m *metrics.CacheMetrics) { m.Misses.WithLabelValues("query").Inc() })

	value, err := load(ctx, a, key, epoch, fetch)
	if err == nil {
		return Result[T]{Value: value, HasValue: true}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prior := a.entries[key]; prior != nil && prior.hasValue {
		return Result[T]{
			Value:              prior.value.(T),
			HasValue:           true,
			IsLoading:          ctx.Err() != nil,
			StaleRefreshFailed: prior.staleRefreshFailed,
		}
	}
	return Result[T]{Err: apperrors.Classify(err)}
}

// load runs fetch once per key and epoch, retrying transient failures, and
// stores the outcome unless the aggregator was reset meanwhile. The shared
// fetch is detached from ctx; a cancelled caller stops waiting but the fetch
// completes for everyone else.
func load[T any](ctx context.Context, a *Aggregator, key string, epoch uint64, fetch func(context.Context) (T, error)) (T, error) {
	flightKey := fmt.Sprintf("%s@%d", key, epoch)
	detached := context.WithoutCancel(ctx)

	ch := a.flights.DoChan(flightKey, func() (any, error) {
		a.bg.Add(1)
		defer a.bg.Done()

		policy := a.opts.Retry
		if policy.OnRetry == nil {
			policy.OnRetry = func(attempt int, err error, wait time.Duration) {
				slog.WarnContext(detached, "Retrying query", "key", key, "attempt", attempt, "wait", wait, "error", err)
			}
		}
		value, err := retry.Do(detached, policy, retry.ByRetryable, func() (T, error) {
			return fetch(detached)
		})
		a.store(key, epoch, value, err)
		return value, err
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (a *Aggregator) store(key string, epoch uint64, value any, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.epoch != epoch {
		slog.Debug("Discarding query result from before reset", "key", key)
		return
	}

	e := a.entries[key]
	if e == nil {
		e = &entry{lastAccess: a.clock.Now()}
		a.entries[key] = e
	}
	e.refreshing = false

	if err != nil {
		e.err = err
		if e.hasValue {
			e.staleRefreshFailed = true
			a.inc(func(m *metrics.CacheMetrics) { m.StaleRefreshFailures.Inc() })
		}
		return
	}

	e.value = value
	e.hasValue = true
	e.fetchedAt = a.clock.Now()
	e.err = nil
	e.staleRefreshFailed = false
	e.invalidated = false
	a.inc(func(m *metrics.CacheMetrics) { m.Entries.Set(float64(len(a.entries))) })
}

func gameNames(streams []domain.Stream) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range streams {
		name := s.GameName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func streamSetHash(streams []domain.Stream, names []string) string {
	ids := make([]string, len(streams))
	for i, s := range streams {
		ids[i] = s.ID
	}
	slices.Sort(ids)

	sum := sha256.Sum256([]byte(strings.Join(ids, ",") + "|" + strings.Join(names, ",")))
	return hex.EncodeToString(sum[:8])
}
