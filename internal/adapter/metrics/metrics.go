package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "streamagenda"

// Set bundles every metric group so it can be handed around as one value.
type Set struct {
	HTTP    *HTTPMetrics
	Cache   *CacheMetrics
	Twitch  *TwitchMetrics
	Storage *StorageMetrics
}

// NewSet registers all metric groups on reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		HTTP:    NewHTTPMetrics(reg),
		Cache:   NewCacheMetrics(reg),
		Twitch:  NewTwitchMetrics(reg),
		Storage: NewStorageMetrics(reg),
	}
}

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
