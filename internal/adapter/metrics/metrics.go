// Package metrics exposes the Prometheus instruments shared by every mode.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

const namespace = "bloompizza"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	orders   *prometheus.CounterVec
	submits  *prometheus.CounterVec
	cooked   *prometheus.HistogramVec
	sessions prometheus.Gauge
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in
// tests to keep runs independent.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "api", Name: "orders_total",
			Help: "Orders received by the order API, by result.",
		}, []string{"result"}),
		submits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "form", Name: "submits_total",
			Help: "Order form submissions by outcome and failure cause.",
		}, []string{"outcome", "cause"}),
		cooked: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "kitchen", Name: "cook_seconds",
			Help:    "Time pizzas spent in the oven.",
			Buckets: []float64{1, 2, 4, 6, 8, 10, 15, 30},
		}, []string{"size"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "web", Name: "sessions",
			Help: "Open order form sessions.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.orders, m.submits, m.cooked, m.sessions)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Order results.
const (
	OrderAccepted  = "accepted"
	OrderRejected  = "rejected"
	OrderMalformed = "malformed"
	OrderFailed    = "failed"
)

func (m *Metrics) RecordOrder(result string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(result).Inc()
}

// RecordSubmit counts order form submissions. Success has an empty cause.
func (m *Metrics) RecordSubmit(kind domain.OutcomeKind, cause string) {
	if m == nil {
		return
	}
	if cause == "" {
		cause = "none"
	}
	m.submits.WithLabelValues(kind.String(), cause).Inc()
}

func (m *Metrics) RecordCooked(size domain.Size, took time.Duration) {
	if m == nil {
		return
	}
	m.cooked.WithLabelValues(string(size)).Observe(took.Seconds())
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
