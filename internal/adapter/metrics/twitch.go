package metrics

import "github.com/prometheus/client_golang/prometheus"

// TwitchMetrics tracks outgoing Helix and OAuth calls.
type TwitchMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	FollowPages     prometheus.Histogram
}

func NewTwitchMetrics(reg prometheus.Registerer) *TwitchMetrics {
	m := &TwitchMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "requests_total",
			Help:      "Total Twitch API requests, by endpoint and outcome code.",
		}, []string{"endpoint", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "request_duration_seconds",
			Help:      "Duration of Twitch API requests in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		FollowPages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "twitch",
			Name:      "followed_pages",
			Help:      "Pages walked per followed-channels enumeration.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50},
		}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.FollowPages)
	return m
}
