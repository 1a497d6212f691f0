// Package metrics holds the Prometheus collectors recorded by the dispatcher
// and served on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "interaction_router"

// Metrics groups the router collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	handled   *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	pages     *prometheus.HistogramVec
	followUps *prometheus.CounterVec
	inflight  prometheus.Gauge
}

// New creates the collectors on a dedicated registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		handled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interactions_total",
				Help:      "Interactions handled, by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "interaction_duration_seconds",
				Help:      "Time from receipt to the last outbound call.",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 3, 5, 10, 30},
			},
			[]string{"kind"},
		),
		pages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embed_pages",
				Help:      "Embed pages emitted per interaction.",
				Buckets:   prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"kind"},
		),
		followUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "follow_ups_total",
				Help:      "Follow-up messages sent.",
			},
			[]string{"kind"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interactions_inflight",
			Help:      "Interactions currently being handled.",
		}),
	}
	m.registry.MustRegister(
		m.handled, m.duration, m.pages, m.followUps, m.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observation is what the dispatcher reports for one interaction.
type Observation struct {
	Kind      string
	Outcome   string
	Duration  time.Duration
	Pages     int
	FollowUps int
}

// Begin marks an interaction as in flight; call the returned func when done.
func (m *Metrics) Begin() func() {
	if m == nil {
		return func() {}
	}
	m.inflight.Inc()
	return m.inflight.Dec
}

// Observe records one handled interaction.
func (m *Metrics) Observe(o Observation) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(o.Kind, o.Outcome).Inc()
	m.duration.WithLabelValues(o.Kind).Observe(o.Duration.Seconds())
	m.pages.WithLabelValues(o.Kind).Observe(float64(o.Pages))
	if o.FollowUps > 0 {
		m.followUps.WithLabelValues(o.Kind).Add(float64(o.FollowUps))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
