// Package metrics exposes the Prometheus instruments the API reports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests          *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	SearchUnavailable prometheus.Counter
}

// New registers the instruments on the given registerer. Each server gets
// its own registry so tests can run servers side by side.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contentapi_requests_total",
			Help: "API requests served, by route and status code.",
		}, []string{"route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contentapi_request_duration_seconds",
			Help:    "API request latency, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		SearchUnavailable: factory.NewCounter(prometheus.CounterOpts{
			Name: "contentapi_search_unavailable_total",
			Help: "Search requests that failed because the engine was unreachable.",
		}),
	}
}
