// Package reconcile sweeps transactions stranded in a transient status by a
// crashed or partitioned coordinator and drives each to its forced outcome:
// committing rows forward to committed, preparing and canceling rows to
// canceled.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/transfer"
)

// Config bounds one reconciliation pass.
type Config struct {
	// Interval between sweeps.
	Interval time.Duration
	// StaleAfter is how old a transient transaction must be before it is
	// forced. It must comfortably exceed the longest legitimate
	// prepare-to-commit window.
	StaleAfter time.Duration
	// BatchSize caps the rows fetched per sweep.
	BatchSize int
}

// DefaultConfig returns the default reconciler configuration.
func DefaultConfig() Config {
	return Config{
		Interval:   time.Minute,
		StaleAfter: 10 * time.Minute,
		BatchSize:  100,
	}
}

// Reconciler periodically resolves stale transactions. It reuses the
// coordinator's Commit and Cancel, so a sweep racing a live caller is decided
// by the same status compare-and-set as everything else.
type Reconciler struct {
	txns      persistence.TransactionLog
	transfers *transfer.Coordinator
	cfg       Config
	logger    coreport.Logger
	tp        coreport.TimeProvider
	metrics   coreport.Metrics
}

// NewReconciler creates a reconciler.
func NewReconciler(
	txns persistence.TransactionLog,
	transfers *transfer.Coordinator,
	cfg Config,
	tp coreport.TimeProvider,
	logger coreport.Logger,
) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Reconciler{
		txns:      txns,
		transfers: transfers,
		cfg:       cfg,
		logger:    logger,
		tp:        tp,
		metrics:   coreport.NopMetrics(),
	}
}

// WithMetrics attaches operational counters.
func (r *Reconciler) WithMetrics(m coreport.Metrics) *Reconciler {
	r.metrics = m
	return r
}

// Run sweeps until the context is canceled.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started", map[string]any{
		"interval":    r.cfg.Interval.String(),
		"stale_after": r.cfg.StaleAfter.String(),
	})
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.Error("reconciler sweep failed", map[string]any{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped", nil)
			return
		case <-ticker.C:
		}
	}
}

// Sweep resolves one batch of stale transactions and returns how many it
// drove to a terminal status. The transaction id embeds its creation time,
// so staleness is an id-range scan, no timestamp column needed.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	cutoff := r.tp.Now().Add(-r.cfg.StaleAfter)
	before := xid.NewWithTime(cutoff)

	stale, err := r.txns.ListNonTerminal(ctx, []int8{
		entity.StatusPreparing,
		entity.StatusCommitting,
		entity.StatusCanceling,
	}, before, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale transactions: %w", err)
	}

	resolved := 0
	for i := range stale {
		txn := &stale[i]
		if err := r.resolve(ctx, txn); err != nil {
			r.logger.Error("stale transaction unresolved", map[string]any{
				"uid":    txn.UID.String(),
				"txn":    txn.ID.String(),
				"status": entity.StatusName(txn.Status),
				"error":  err.Error(),
			})
			continue
		}
		resolved++
	}

	r.metrics.ReconcilerSweep(len(stale), resolved)
	if len(stale) > 0 {
		r.logger.Info("reconciler sweep done", map[string]any{
			"stale":    len(stale),
			"resolved": resolved,
		})
	}
	return resolved, nil
}

// resolve forces one stale transaction: forward if it reached committing,
// otherwise to canceled.
func (r *Reconciler) resolve(ctx context.Context, txn *entity.Transaction) error {
	switch txn.Status {
	case entity.StatusCommitting:
		_, err := r.transfers.Commit(ctx, txn.UID, txn.ID)
		return err
	case entity.StatusPreparing, entity.StatusCanceling:
		_, err := r.transfers.Cancel(ctx, txn.UID, txn.ID)
		return err
	default:
		return fmt.Errorf("%w: %s/%s in %s", errs.ErrStaleTransaction,
			txn.UID, txn.ID, entity.StatusName(txn.Status))
	}
}
