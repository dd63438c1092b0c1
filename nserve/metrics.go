package nserve

import (
	"net/http"
	"strconv"

	"github.com/muir/nctl/nroute"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts and times dispatched requests.  Each App has its own
// prometheus.Registry so that more than one App can exist in a
// process.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the request metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nctl",
				Name:      "requests_total",
				Help:      "Requests dispatched to a route",
			},
			[]string{"verb", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nctl",
				Name:      "request_duration_seconds",
				Help:      "Time spent dispatching requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"verb", "route"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration)
	return m
}

// Observe is an nroute observer
func (m *Metrics) Observe(o nroute.Observation) {
	m.requests.WithLabelValues(o.Verb, o.Pattern, strconv.Itoa(o.Status)).Inc()
	m.duration.WithLabelValues(o.Verb, o.Pattern).Observe(o.Duration.Seconds())
}

// Registry exposes the prometheus registry so that applications can
// add their own collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
