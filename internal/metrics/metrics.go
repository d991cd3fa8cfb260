// Package metrics exposes Prometheus instruments for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alquemist"

// Execution outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeInsufficient = "insufficient"
	OutcomeError        = "error"
)

// Metrics holds the registered collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	recipeExecutions *prometheus.CounterVec
	lotsConsumed     prometheus.Counter
	lotsExpired      prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

// New builds a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		recipeExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_executions_total",
			Help:      "Recipe executions by outcome.",
		}, []string{"outcome"}),
		lotsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lot_consumptions_total",
			Help:      "Per-lot consumptions applied by recipe executions.",
		}),
		lotsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lots_expired_total",
			Help:      "Lots moved to expired status by the expiry job.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.recipeExecutions,
		m.lotsConsumed,
		m.lotsExpired,
		m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveExecution records a recipe execution outcome and the number of lots it drew from.
func (m *Metrics) ObserveExecution(outcome string, lots int) {
	if m == nil {
		return
	}
	m.recipeExecutions.WithLabelValues(outcome).Inc()
	if lots > 0 {
		m.lotsConsumed.Add(float64(lots))
	}
}

// AddExpired records lots moved to expired status.
func (m *Metrics) AddExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lotsExpired.Add(float64(n))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
