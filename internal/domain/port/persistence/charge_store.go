package persistence

import (
	"context"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// ChargeUpdate is the set of charge fields mutable after creation. Nil
// members are left unchanged.
type ChargeUpdate struct {
	Amount         *int64
	AmountRefunded *int64
	ChargeID       *string
	ChargePayload  []byte
	Txn            *xid.ID
	TxnRefunded    *xid.ID
	FailureCode    *string
	FailureMsg     *string
}

// ChargeStore persists external payment intents keyed (uid, id).
type ChargeStore interface {
	// Create inserts the charge if it does not exist.
	Create(ctx context.Context, charge *entity.Charge) (bool, error)

	// Get returns the charge, or ErrNotFound.
	Get(ctx context.Context, uid, id xid.ID) (*entity.Charge, error)

	// GetByProviderChargeID resolves a provider callback to a charge. It is
	// the webhook deduplication lookup.
	GetByProviderChargeID(ctx context.Context, provider, chargeID string) (*entity.Charge, error)

	// SetStatus moves status from -> to via compare-and-set, refreshing
	// updated_at. It returns false when the condition did not hold.
	SetStatus(ctx context.Context, uid, id xid.ID, from, to int8) (bool, error)

	// Update applies field changes conditioned on the stored status.
	Update(ctx context.Context, uid, id xid.ID, status int8, update ChargeUpdate) (bool, error)

	// List returns a user's charges, newest first, optionally filtered by
	// status.
	List(ctx context.Context, uid xid.ID, status *int8, opts ListOptions) ([]entity.Charge, error)
}

// CustomerStore persists provider identity mappings keyed (uid, provider).
type CustomerStore interface {
	// Get returns the mapping, or ErrNotFound.
	Get(ctx context.Context, uid xid.ID, provider string) (*entity.Customer, error)

	// Save inserts or updates the mapping, merging the historical customer
	// id set.
	Save(ctx context.Context, customer *entity.Customer) error
}
