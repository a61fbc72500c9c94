// Package metrics exposes prometheus instrumentation for the billing engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type EngineMetrics struct {
	ReconcileRuns           prometheus.Counter
	ReconcileDuration       prometheus.Histogram
	ReconcileFailures       prometheus.Counter
	SubscriptionTransitions *prometheus.CounterVec
	InvoiceTransitions      *prometheus.CounterVec
	PaymentRefunds          prometheus.Counter
}

var (
	engineOnce sync.Once
	engine     *EngineMetrics
)

// Engine returns the process-wide billing engine metrics, registering them on
// the default registerer on first use.
func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engine = newEngineMetrics(prometheus.DefaultRegisterer)
	})
	return engine
}

func newEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		ReconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "nusabill_reconcile_runs_total",
			Help: "Reconciliation sweeps started.",
		}),
		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nusabill_reconcile_duration_seconds",
			Help:    "Wall time of a reconciliation sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		ReconcileFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "nusabill_reconcile_failures_total",
			Help: "Per-subscription evaluation failures during sweeps.",
		}),
		SubscriptionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nusabill_subscription_transitions_total",
			Help: "Applied subscription lifecycle transitions.",
		}, []string{"from", "to"}),
		InvoiceTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nusabill_invoice_transitions_total",
			Help: "Applied invoice status transitions.",
		}, []string{"from", "to"}),
		PaymentRefunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "nusabill_payment_refunds_total",
			Help: "Refund events appended to the payment ledger.",
		}),
	}
}
