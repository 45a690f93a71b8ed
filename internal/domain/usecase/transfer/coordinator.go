// Package transfer drives the value-transfer saga: prepare a transaction,
// advance it to prepared, then commit or cancel it. Wallet rows are the only
// shared state and every wallet step is an idempotent conditional write, so
// the saga needs no cross-partition transaction and any step can be replayed
// after a crash.
package transfer

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/credit"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
)

// PrepareInput carries the parameters of a new transaction. SysFee and
// SubShares may be pinned by the caller; nil means derive them from the kind
// rule and the payer's credit score.
type PrepareInput struct {
	Payer       xid.ID
	Payee       xid.ID
	SubPayee    *xid.ID
	Kind        string
	Amount      int64
	SysFee      *int64
	SubShares   *int64
	Description string
	Payload     []byte
}

// Coordinator owns the transaction state machine. All mutations of a
// transaction go through status compare-and-set, so concurrent coordinators
// (including the reconciler) agree on a single winner for every transition.
type Coordinator struct {
	wallets *wallet.Store
	txns    persistence.TransactionLog
	payees  persistence.PayeeIndex
	credits *credit.Service
	logger  coreport.Logger
	metrics coreport.Metrics
}

// NewCoordinator creates a transfer coordinator.
func NewCoordinator(
	wallets *wallet.Store,
	txns persistence.TransactionLog,
	payees persistence.PayeeIndex,
	credits *credit.Service,
	logger coreport.Logger,
) *Coordinator {
	return &Coordinator{
		wallets: wallets,
		txns:    txns,
		payees:  payees,
		credits: credits,
		logger:  logger,
		metrics: coreport.NopMetrics(),
	}
}

// WithMetrics attaches operational counters.
func (c *Coordinator) WithMetrics(m coreport.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// Prepare validates participants, fees and available balance, then records a
// new transaction in preparing status. No wallet is touched: the debit
// happens at commit, and until then the amount is only reserved by being
// counted against the payer's quota here.
func (c *Coordinator) Prepare(ctx context.Context, in PrepareInput) (*entity.Transaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount %d", errs.ErrInvalidAmount, in.Amount)
	}
	rule, err := entity.LookupKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if err := rule.CheckPayer(in.Kind, in.Payer); err != nil {
		return nil, err
	}
	if err := rule.CheckPayee(in.Kind, in.Payee); err != nil {
		return nil, err
	}
	// a self-payment would let the payee credit step collide with the payer
	// debit on the same wallet's txn marker
	if in.Payee == in.Payer {
		return nil, fmt.Errorf("%w: payee %s is the payer", errs.ErrInvalidParticipant, in.Payee)
	}
	if in.SubPayee != nil {
		if err := rule.CheckSubPayee(in.Kind, in.Payer, in.Payee, *in.SubPayee); err != nil {
			return nil, err
		}
	}

	payerWallet, err := c.wallets.Get(ctx, in.Payer)
	if err != nil {
		if errs.IsNotFoundError(err) {
			return nil, &errs.InsufficientBalanceError{
				UID: in.Payer, Kind: in.Kind, Amount: in.Amount, Available: 0,
			}
		}
		return nil, err
	}
	if rule.RequireCredits && payerWallet.Credits <= 0 {
		return nil, fmt.Errorf("%w: payer %s", errs.ErrRequireCredits, in.Payer)
	}

	sysFee, subShares := rule.Fee(in.Amount, payerWallet.Credits, in.SubPayee != nil)
	if in.SysFee != nil {
		sysFee = *in.SysFee
	}
	if in.SubShares != nil {
		subShares = *in.SubShares
	}
	if err := checkAmounts(in.Amount, sysFee, subShares, in.SubPayee); err != nil {
		return nil, err
	}

	if !payerWallet.IsSystem() {
		available := rule.Quota(payerWallet)
		pending, err := c.txns.ListPending(ctx, in.Payer)
		if err != nil {
			return nil, err
		}
		for i := range pending {
			available -= pending[i].Amount
		}
		if in.Amount > available {
			if available < 0 {
				available = 0
			}
			return nil, &errs.InsufficientBalanceError{
				UID: in.Payer, Kind: in.Kind, Amount: in.Amount, Available: available,
			}
		}
	}

	txn := &entity.Transaction{
		UID:         in.Payer,
		ID:          xid.New(),
		Sequence:    payerWallet.Sequence,
		Payee:       in.Payee,
		SubPayee:    in.SubPayee,
		Status:      entity.StatusPreparing,
		Kind:        in.Kind,
		Amount:      in.Amount,
		SysFee:      sysFee,
		SubShares:   subShares,
		Description: in.Description,
		Payload:     in.Payload,
	}
	created, err := c.txns.Create(ctx, txn)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: transaction %s", errs.ErrConflict, txn.ID)
	}

	c.logger.Info("transaction prepared", map[string]any{
		"uid":    txn.UID.String(),
		"txn":    txn.ID.String(),
		"kind":   txn.Kind,
		"amount": txn.Amount,
	})
	return txn, nil
}

// checkAmounts enforces amount == sys_fee + sub_shares + payee_net with every
// component non-negative, and no shares without a sub-payee.
func checkAmounts(amount, sysFee, subShares int64, subPayee *xid.ID) error {
	if sysFee < 0 || subShares < 0 {
		return fmt.Errorf("%w: sys_fee %d, sub_shares %d", errs.ErrInvariantViolation, sysFee, subShares)
	}
	if subPayee == nil && subShares != 0 {
		return fmt.Errorf("%w: sub_shares %d without sub_payee", errs.ErrInvariantViolation, subShares)
	}
	if amount-sysFee-subShares < 0 {
		return fmt.Errorf("%w: amount %d < sys_fee %d + sub_shares %d",
			errs.ErrInvariantViolation, amount, sysFee, subShares)
	}
	return nil
}

// Get returns a payer's transaction.
func (c *Coordinator) Get(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	return c.txns.Get(ctx, uid, id)
}

// List returns a payer's transactions, newest first.
func (c *Coordinator) List(ctx context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Transaction, error) {
	return c.txns.List(ctx, uid, opts)
}

// ListByPayee returns the payee-side index rows, newest first.
func (c *Coordinator) ListByPayee(ctx context.Context, payee xid.ID, opts persistence.ListOptions) ([]entity.PayeeTransaction, error) {
	return c.payees.List(ctx, payee, opts)
}

// AdvanceToPrepared moves preparing -> prepared. Losing the compare-and-set
// to an identical transition is still success.
func (c *Coordinator) AdvanceToPrepared(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	ok, err := c.txns.SetStatus(ctx, uid, id, entity.StatusPreparing, entity.StatusPrepared)
	if err != nil {
		return nil, err
	}
	txn, err := c.txns.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	if !ok && txn.Status != entity.StatusPrepared {
		return nil, &errs.StateTransitionError{
			UID: uid, Txn: id, From: txn.Status, To: entity.StatusPrepared,
		}
	}
	return txn, nil
}

// Commit drives a prepared transaction to committed. Entering committing is
// the point of no return: from there the saga only moves forward, and a
// crashed commit is resumed by re-invoking Commit (the reconciler does this
// for stale rows). Wallet steps run in deterministic order — payer debit,
// system fee, sub-payee share, payee credit — each an idempotent conditional
// write keyed by the transaction id.
func (c *Coordinator) Commit(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	txn, err := c.txns.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	switch txn.Status {
	case entity.StatusCommitted:
		return txn, nil
	case entity.StatusCommitting:
		// resume a previous attempt
	case entity.StatusPrepared:
		ok, err := c.txns.SetStatus(ctx, uid, id, entity.StatusPrepared, entity.StatusCommitting)
		if err != nil {
			return nil, err
		}
		if !ok {
			// lost the race: re-read and accept only a committing/committed winner
			txn, err = c.txns.Get(ctx, uid, id)
			if err != nil {
				return nil, err
			}
			switch txn.Status {
			case entity.StatusCommitted:
				return txn, nil
			case entity.StatusCommitting:
			default:
				return nil, &errs.StateTransitionError{
					UID: uid, Txn: id, From: txn.Status, To: entity.StatusCommitting,
				}
			}
		}
	default:
		return nil, &errs.StateTransitionError{
			UID: uid, Txn: id, From: txn.Status, To: entity.StatusCommitting,
		}
	}
	txn.Status = entity.StatusCommitting

	if err := c.applyWalletSteps(ctx, txn); err != nil {
		return nil, err
	}
	if err := c.saveIndexAndCredits(ctx, txn); err != nil {
		return nil, err
	}

	ok, err := c.txns.SetStatus(ctx, uid, id, entity.StatusCommitting, entity.StatusCommitted)
	if err != nil {
		return nil, err
	}
	if !ok {
		// a concurrent committer finished first; confirm and accept
		txn, err = c.txns.Get(ctx, uid, id)
		if err != nil {
			return nil, err
		}
		if txn.Status != entity.StatusCommitted {
			return nil, &errs.StateTransitionError{
				UID: uid, Txn: id, From: txn.Status, To: entity.StatusCommitted,
			}
		}
		return txn, nil
	}
	txn.Status = entity.StatusCommitted
	c.metrics.TransactionCommitted(txn.Kind)

	c.logger.Info("transaction committed", map[string]any{
		"uid":    txn.UID.String(),
		"txn":    txn.ID.String(),
		"kind":   txn.Kind,
		"amount": txn.Amount,
	})
	return txn, nil
}

// applyWalletSteps performs the transaction's wallet mutations in their
// deterministic order. Each wallet is touched at most once: when the payee is
// the system account the fee is folded into the payee step, so the marker
// check stays sound.
func (c *Coordinator) applyWalletSteps(ctx context.Context, txn *entity.Transaction) error {
	rule, err := entity.LookupKind(txn.Kind)
	if err != nil {
		return err
	}

	if _, err := c.wallets.Apply(ctx, txn.UID, txn.ID, func(w *entity.Wallet) error {
		rule.Debit(w, txn.Amount).Apply(w)
		return nil
	}); err != nil {
		return fmt.Errorf("debit payer %s: %w", txn.UID, err)
	}

	if txn.SysFee > 0 && txn.Payee != entity.SysID {
		if _, err := c.wallets.Apply(ctx, entity.SysID, txn.ID, func(w *entity.Wallet) error {
			w.Income += txn.SysFee
			return nil
		}); err != nil {
			return fmt.Errorf("credit system fee: %w", err)
		}
	}

	if txn.SubShares > 0 && txn.SubPayee != nil {
		if _, err := c.wallets.Apply(ctx, *txn.SubPayee, txn.ID, func(w *entity.Wallet) error {
			w.Income += txn.SubShares
			return nil
		}); err != nil {
			return fmt.Errorf("credit sub-payee %s: %w", *txn.SubPayee, err)
		}
	}

	if _, err := c.wallets.Apply(ctx, txn.Payee, txn.ID, func(w *entity.Wallet) error {
		rule.Credit(txn.PayeeNet()).Apply(w)
		if txn.Payee == entity.SysID {
			w.Income += txn.SysFee
		}
		return nil
	}); err != nil {
		return fmt.Errorf("credit payee %s: %w", txn.Payee, err)
	}

	return nil
}

// saveIndexAndCredits writes the payee-side index rows and the derived
// credit entries. Both are insert-if-not-exists, so replays are harmless.
func (c *Coordinator) saveIndexAndCredits(ctx context.Context, txn *entity.Transaction) error {
	if _, err := c.payees.Save(ctx, &entity.PayeeTransaction{
		Payee: txn.Payee, Txn: txn.ID, UID: txn.UID,
	}); err != nil {
		return fmt.Errorf("payee index %s: %w", txn.Payee, err)
	}
	if txn.SubPayee != nil && txn.SubShares > 0 {
		if _, err := c.payees.Save(ctx, &entity.PayeeTransaction{
			Payee: *txn.SubPayee, Txn: txn.ID, UID: txn.UID,
		}); err != nil {
			return fmt.Errorf("payee index %s: %w", *txn.SubPayee, err)
		}
	}

	committed := *txn
	committed.Status = entity.StatusCommitted
	return c.credits.SaveAll(ctx, committed.Credits())
}

// Cancel drives a preparing or prepared transaction to canceled. No wallet
// was debited before commit, so cancellation only walks the status machine:
// canceling, then canceled. A transaction that already entered committing
// cannot be canceled.
func (c *Coordinator) Cancel(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	txn, err := c.txns.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	switch txn.Status {
	case entity.StatusCanceled:
		return txn, nil
	case entity.StatusCanceling:
		// resume a previous attempt
	case entity.StatusPreparing, entity.StatusPrepared:
		ok, err := c.txns.SetStatus(ctx, uid, id, txn.Status, entity.StatusCanceling)
		if err != nil {
			return nil, err
		}
		if !ok {
			txn, err = c.txns.Get(ctx, uid, id)
			if err != nil {
				return nil, err
			}
			switch txn.Status {
			case entity.StatusCanceled:
				return txn, nil
			case entity.StatusCanceling:
			case entity.StatusPreparing, entity.StatusPrepared:
				// someone moved preparing -> prepared under us; try again from there
				return c.Cancel(ctx, uid, id)
			default:
				return nil, &errs.StateTransitionError{
					UID: uid, Txn: id, From: txn.Status, To: entity.StatusCanceling,
				}
			}
		}
	default:
		return nil, &errs.StateTransitionError{
			UID: uid, Txn: id, From: txn.Status, To: entity.StatusCanceling,
		}
	}

	ok, err := c.txns.SetStatus(ctx, uid, id, entity.StatusCanceling, entity.StatusCanceled)
	if err != nil {
		return nil, err
	}
	if !ok {
		txn, err = c.txns.Get(ctx, uid, id)
		if err != nil {
			return nil, err
		}
		if txn.Status != entity.StatusCanceled {
			return nil, &errs.StateTransitionError{
				UID: uid, Txn: id, From: txn.Status, To: entity.StatusCanceled,
			}
		}
		return txn, nil
	}
	txn.Status = entity.StatusCanceled
	c.metrics.TransactionCanceled(txn.Kind)

	c.logger.Info("transaction canceled", map[string]any{
		"uid":  txn.UID.String(),
		"txn":  txn.ID.String(),
		"kind": txn.Kind,
	})
	return txn, nil
}
