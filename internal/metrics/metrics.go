// Package metrics exposes Prometheus counters for the ledger, the ingestion
// pipeline and the RPC layer. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	OrdersPlaced    prometheus.Counter
	OrdersCancelled prometheus.Counter
	Settlements     prometheus.Counter
	Unrecorded      *prometheus.CounterVec
	StoreFailures   *prometheus.CounterVec
	Compensations   *prometheus.CounterVec
	Ingestions      *prometheus.CounterVec
	RPCDuration     *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "orders_placed_total",
			Help: "Orders placed and booked to a balance.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "orders_cancelled_total",
			Help: "Orders cancelled and refunded from a balance.",
		}),
		Settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "settlements_total",
			Help: "Debt settlements applied by admins.",
		}),
		Unrecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "settlements_unrecorded_total",
			Help: "Settlements applied to a balance whose audit record failed to save.",
		}, []string{"user_name"}),
		StoreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "store_failures_total",
			Help: "Ledger operations that failed against the store.",
		}, []string{"op"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "compensations_total",
			Help: "Compensating writes after a half-applied operation.",
		}, []string{"op", "result"}),
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lunchtab", Name: "ingestions_total",
			Help: "Menu ingestions by analysis path and outcome.",
		}, []string{"path", "result"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lunchtab", Name: "rpc_duration_seconds",
			Help:    "RPC latency by procedure and code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OrdersPlaced, m.OrdersCancelled, m.Settlements, m.Unrecorded,
		m.StoreFailures, m.Compensations, m.Ingestions, m.RPCDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) OrderPlaced() {
	if m != nil {
		m.OrdersPlaced.Inc()
	}
}

func (m *Metrics) OrderCancelled() {
	if m != nil {
		m.OrdersCancelled.Inc()
	}
}

func (m *Metrics) Settled() {
	if m != nil {
		m.Settlements.Inc()
	}
}

// SettlementUnrecorded marks a balance that Reconcile will report as drifted
// because its settlement record is missing.
func (m *Metrics) SettlementUnrecorded(userName string) {
	if m != nil {
		m.Unrecorded.WithLabelValues(userName).Inc()
	}
}

func (m *Metrics) StoreFailure(op string) {
	if m != nil {
		m.StoreFailures.WithLabelValues(op).Inc()
	}
}

// Compensated records a compensating write; ok reports whether it applied.
func (m *Metrics) Compensated(op string, ok bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !ok {
		result = "failed"
	}
	m.Compensations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Ingested(path, result string) {
	if m != nil {
		m.Ingestions.WithLabelValues(path, result).Inc()
	}
}

func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m != nil {
		m.RPCDuration.WithLabelValues(procedure, code).Observe(seconds)
	}
}
