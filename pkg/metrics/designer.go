package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for designer operations.
const (
	OutcomeOK         = "ok"
	OutcomeViolations = "violations"
	OutcomeError      = "error"
)

// DesignerMetrics records pricing and order-finalize activity.
type DesignerMetrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	violations *prometheus.CounterVec
	stockFails prometheus.Counter
}

// NewDesignerMetrics registers the designer metrics on the provided registerer.
func NewDesignerMetrics(reg prometheus.Registerer) *DesignerMetrics {
	if reg == nil {
		return &DesignerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "designer_operation_duration_seconds",
		Help:    "Duration of designer pricing operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "designer_operations_total",
		Help: "Designer pricing operations by outcome.",
	}, []string{"operation", "outcome"})
	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "designer_violations_total",
		Help: "Selection violations reported to shoppers.",
	}, []string{"kind"})
	stockFails := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "designer_stock_reservation_failures_total",
		Help: "Order finalizations rejected because stock ran out at commit.",
	})
	reg.MustRegister(duration, operations, violations, stockFails)
	return &DesignerMetrics{
		duration:   duration,
		operations: operations,
		violations: violations,
		stockFails: stockFails,
	}
}

// Observe records one completed operation.
func (m *DesignerMetrics) Observe(operation, outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
	m.operations.WithLabelValues(op, normalizeLabel(outcome)).Inc()
}

// IncViolation counts one reported violation of the given kind.
func (m *DesignerMetrics) IncViolation(kind string) {
	if m == nil || m.violations == nil {
		return
	}
	m.violations.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncStockReservationFailure counts a finalize rejected at reservation time.
func (m *DesignerMetrics) IncStockReservationFailure() {
	if m == nil || m.stockFails == nil {
		return
	}
	m.stockFails.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
