package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const unmatchedRoute = "unmatched"

// Buckets span in-memory aggregator hits and full Helix fan-outs.
var requestBuckets = []float64{.001, .005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30}

type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	ResponseBytes   *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	labels := []string{"method", "route", "status_class"}
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests by route template.",
			Buckets:   requestBuckets,
		}, labels),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route template and status class.",
		}, labels),
		ResponseBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Size of response bodies; agenda payloads grow with the followed set.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "API requests currently being served.",
		}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.ResponseBytes, m.InFlight)
	return m
}

func skipRoute(route string) bool {
	return route == "/metrics" || strings.HasPrefix(route, "/health/") || route == "/version"
}

// statusClass folds a status code into "2xx", "4xx" and so on.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// Middleware records request metrics labelled by route template rather than
// raw path. Probes, /version and the scrape endpoint are skipped.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if skipRoute(route) {
				return next(c)
			}
			if route == "" {
				route = unmatchedRoute
			}

			m.InFlight.Inc()
			start := time.Now()
			err := next(c)
			m.InFlight.Dec()

			res := c.Response()
			class := statusClass(res.Status)
			method := c.Request().Method
			m.RequestDuration.WithLabelValues(method, route, class).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(method, route, class).Inc()
			m.ResponseBytes.WithLabelValues(route).Observe(float64(res.Size))
			return err
		}
	}
}
