package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

// Checkout outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeNotFound     = "not_found"
	OutcomeBusinessRule = "business_rule"
	OutcomeConcurrency  = "concurrency"
	OutcomeError        = "error"
)

// Outcome buckets err by its error code.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeNotFound:
		return OutcomeNotFound
	case pkgerrors.CodeBusinessRule:
		return OutcomeBusinessRule
	case pkgerrors.CodeConcurrency:
		return OutcomeConcurrency
	default:
		return OutcomeError
	}
}

// OrderMetrics tracks checkout attempts and order lifecycle transitions.
type OrderMetrics struct {
	checkouts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	reconciled  prometheus.Counter
}

// NewOrderMetrics registers the order metrics on reg. A nil registerer yields
// a no-op recorder so services can be built without prometheus in tests.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by entry point and outcome.",
	}, []string{"entry", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions.",
	}, []string{"from", "to"})
	reconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_orders_total",
		Help:      "Shipped orders auto-completed by the reconciliation job.",
	})
	reg.MustRegister(checkouts, transitions, reconciled)
	return &OrderMetrics{
		checkouts:   checkouts,
		transitions: transitions,
		reconciled:  reconciled,
	}
}

// ObserveCheckout counts one checkout attempt.
func (m *OrderMetrics) ObserveCheckout(entry string, err error) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(entry), Outcome(err)).Inc()
}

// IncTransition counts a committed status change.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// AddReconciled counts orders completed by reconciliation.
func (m *OrderMetrics) AddReconciled(n int) {
	if m == nil || m.reconciled == nil || n <= 0 {
		return
	}
	m.reconciled.Add(float64(n))
}
