package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

type Metrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkouts *prometheus.CounterVec
	Conflicts prometheus.Counter
	Events    *prometheus.CounterVec
}

// NewMetrics registers every collector on a private registry so several
// instances can coexist in tests.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of handled requests.",
	}, []string{"transport", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_ms",
		Help:      "Request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"transport", "route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_conflicts_total",
		Help:      "Checkouts rejected for insufficient stock.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_events_total",
		Help:      "Order events by type and delivery result.",
	}, []string{"type", "result"})

	reg.MustRegister(
		requests, latency, checkouts, conflicts, events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:  reg,
		Requests:  requests,
		LatencyMS: latency,
		Checkouts: checkouts,
		Conflicts: conflicts,
		Events:    events,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveCheckout counts a checkout outcome: "ok" or an error kind.
func (m *Metrics) ObserveCheckout(outcome string) {
	m.Checkouts.WithLabelValues(outcome).Inc()
	if outcome == "InsufficientStock" {
		m.Conflicts.Inc()
	}
}

func (m *Metrics) EventDelivered(eventType string) {
	m.Events.WithLabelValues(eventType, "delivered").Inc()
}

func (m *Metrics) EventFailed(eventType string) {
	m.Events.WithLabelValues(eventType, "failed").Inc()
}

func (m *Metrics) EventDropped(eventType string) {
	m.Events.WithLabelValues(eventType, "dropped").Inc()
}
