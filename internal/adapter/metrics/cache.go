package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics covers both the persistent schedule cache and the in-memory
// aggregate query cache, split by layer ("schedule", "query").
type CacheMetrics struct {
	Hits                 *prometheus.CounterVec
	Misses               *prometheus.CounterVec
	Invalidations        prometheus.Counter
	Evictions            prometheus.Counter
	Entries              prometheus.Gauge
	StaleRefreshFailures prometheus.Counter
	WriteFailures        prometheus.Counter
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of cache misses, by layer.",
		}, []string{"layer"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Total number of explicit query cache invalidations.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of query cache entries evicted after the retention window.",
		}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "query_entries",
			Help:      "Current number of query cache entries.",
		}),
		StaleRefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "stale_refresh_failures_total",
			Help:      "Refreshes that failed while a stale result kept being served.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "schedule_write_failures_total",
			Help:      "Schedule records that could not be persisted.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.Evictions, m.Entries, m.StaleRefreshFailures, m.WriteFailures)
	return m
}
