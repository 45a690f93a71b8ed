package core

// Metrics records the engine's operational counters. Implementations must be
// safe for concurrent use.
type Metrics interface {
	// TransactionCommitted counts a transaction reaching committed.
	TransactionCommitted(kind string)
	// TransactionCanceled counts a transaction reaching canceled.
	TransactionCanceled(kind string)
	// SequenceConflict counts a conditional wallet write losing its race.
	SequenceConflict()
	// ChecksumMismatch counts a wallet row failing verification.
	ChecksumMismatch()
	// ReconcilerSweep records one sweep's stale and resolved counts.
	ReconcilerSweep(stale, resolved int)
	// ChargeEvent counts a provider webhook by outcome.
	ChargeEvent(provider, outcome string)
}

type nopMetrics struct{}

func (nopMetrics) TransactionCommitted(string) {}
func (nopMetrics) TransactionCanceled(string)  {}
func (nopMetrics) SequenceConflict()           {}
func (nopMetrics) ChecksumMismatch()           {}
func (nopMetrics) ReconcilerSweep(int, int)    {}
func (nopMetrics) ChargeEvent(string, string)  {}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
