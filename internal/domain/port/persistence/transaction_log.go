package persistence

import (
	"context"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// ListOptions control id-descending pagination and optional kind filtering.
// PageToken, when set, returns rows with id strictly less than the token.
type ListOptions struct {
	PageSize  int
	PageToken *xid.ID
	Kind      string
}

// TransactionLog is the append-once record of transfer attempts, keyed
// (uid, id) where uid is the payer. Rows are immutable except for the status
// field, which only moves through compare-and-set.
type TransactionLog interface {
	// Create inserts the transaction if it does not exist. It returns false
	// without error when the (uid, id) row was already there.
	Create(ctx context.Context, txn *entity.Transaction) (bool, error)

	// Get returns the transaction, or ErrNotFound.
	Get(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error)

	// SetStatus moves status from -> to, conditioned on the stored status
	// still being from. It returns false when the condition did not hold;
	// the caller re-reads to observe who won.
	SetStatus(ctx context.Context, uid, id xid.ID, from, to int8) (bool, error)

	// List returns a payer's transactions, newest first.
	List(ctx context.Context, uid xid.ID, opts ListOptions) ([]entity.Transaction, error)

	// ListPending returns a payer's non-terminal transactions. Prepare uses
	// it to reserve in-flight amounts against the available balance.
	ListPending(ctx context.Context, uid xid.ID) ([]entity.Transaction, error)

	// ListNonTerminal returns transactions across all payers whose status is
	// one of the given non-terminal statuses and whose id is older than
	// before. The reconciler is the only caller.
	ListNonTerminal(ctx context.Context, statuses []int8, before xid.ID, limit int) ([]entity.Transaction, error)
}

// PayeeIndex stores the denormalized (payee, txn) -> uid rows written when a
// transaction commits. Rows are never authoritative.
type PayeeIndex interface {
	// Save inserts the index row if it does not exist.
	Save(ctx context.Context, row *entity.PayeeTransaction) (bool, error)

	// List returns a payee's transaction references, newest first.
	List(ctx context.Context, payee xid.ID, opts ListOptions) ([]entity.PayeeTransaction, error)
}

// CreditLog stores the append-only credit-score audit trail.
type CreditLog interface {
	// Create inserts the entry if it does not exist. It returns false
	// without error when the (uid, txn) row was already there.
	Create(ctx context.Context, credit *entity.Credit) (bool, error)

	// Get returns the entry, or ErrNotFound.
	Get(ctx context.Context, uid, txn xid.ID) (*entity.Credit, error)

	// List returns a user's entries, newest first.
	List(ctx context.Context, uid xid.ID, opts ListOptions) ([]entity.Credit, error)
}
