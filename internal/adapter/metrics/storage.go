package metrics

import "github.com/prometheus/client_golang/prometheus"

// StorageMetrics covers Redis commands, Postgres queries and the schedule
// cache circuit breaker.
type StorageMetrics struct {
	RedisOpsTotal         *prometheus.CounterVec
	RedisOpDuration       *prometheus.HistogramVec
	RedisConnectionErrors prometheus.Counter
	DBQueryDuration       *prometheus.HistogramVec
	DBErrorsTotal         *prometheus.CounterVec
	BreakerState          *prometheus.GaugeVec
	BreakerStateChanges   *prometheus.CounterVec
}

func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		RedisOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total Redis operations by operation and status.",
		}, []string{"operation", "status"}),
		RedisOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Redis operation duration in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		RedisConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total Redis connection errors.",
		}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds, by statement verb.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"query"}),
		DBErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total failed database queries, by statement verb.",
		}, []string{"query"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
		BreakerStateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Circuit breaker state transitions by component and new state.",
		}, []string{"component", "state"}),
	}

	reg.MustRegister(m.RedisOpsTotal, m.RedisOpDuration, m.RedisConnectionErrors,
		m.DBQueryDuration, m.DBErrorsTotal, m.BreakerState, m.BreakerStateChanges)
	return m
}
