// Package metrics implements the Metrics port on Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yiwen-ai/walletbase/internal/domain/port/core"
)

// PrometheusMetrics implements the Metrics port with promauto collectors
// registered on the default registry.
type PrometheusMetrics struct {
	transactions      *prometheus.CounterVec
	sequenceConflicts prometheus.Counter
	checksumFailures  prometheus.Counter
	reconcilerStale   prometheus.Counter
	reconcilerFixed   prometheus.Counter
	chargeEvents      *prometheus.CounterVec
}

// NewPrometheusMetrics creates and registers the engine's collectors. Call
// it once per process.
func NewPrometheusMetrics() core.Metrics {
	return &PrometheusMetrics{
		transactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "walletbase_transactions_total",
			Help: "Transactions that reached a terminal status, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		sequenceConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletbase_wallet_sequence_conflicts_total",
			Help: "Conditional wallet writes that lost the sequence race.",
		}),
		checksumFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletbase_wallet_checksum_failures_total",
			Help: "Wallet rows that failed checksum verification.",
		}),
		reconcilerStale: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletbase_reconciler_stale_total",
			Help: "Stale transactions found by reconciler sweeps.",
		}),
		reconcilerFixed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "walletbase_reconciler_resolved_total",
			Help: "Stale transactions driven to a terminal status.",
		}),
		chargeEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "walletbase_charge_events_total",
			Help: "Payment provider webhook deliveries, by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
}

// TransactionCommitted counts a transaction reaching committed.
func (m *PrometheusMetrics) TransactionCommitted(kind string) {
	m.transactions.WithLabelValues(kind, "committed").Inc()
}

// TransactionCanceled counts a transaction reaching canceled.
func (m *PrometheusMetrics) TransactionCanceled(kind string) {
	m.transactions.WithLabelValues(kind, "canceled").Inc()
}

// SequenceConflict counts a conditional wallet write losing its race.
func (m *PrometheusMetrics) SequenceConflict() {
	m.sequenceConflicts.Inc()
}

// ChecksumMismatch counts a wallet row failing verification.
func (m *PrometheusMetrics) ChecksumMismatch() {
	m.checksumFailures.Inc()
}

// ReconcilerSweep records one sweep's stale and resolved counts.
func (m *PrometheusMetrics) ReconcilerSweep(stale, resolved int) {
	m.reconcilerStale.Add(float64(stale))
	m.reconcilerFixed.Add(float64(resolved))
}

// ChargeEvent counts a provider webhook by outcome.
func (m *PrometheusMetrics) ChargeEvent(provider, outcome string) {
	m.chargeEvents.WithLabelValues(provider, outcome).Inc()
}
