package persistence

import (
	"context"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// WalletRepository is the conditional-write primitive over wallet rows. The
// backing store must provide per-partition linearizable compare-and-set on
// the sequence field; it is the only synchronization primitive the engine
// relies on.
type WalletRepository interface {
	// Get returns the wallet row, or ErrNotFound for an unknown uid.
	Get(ctx context.Context, uid xid.ID) (*entity.Wallet, error)

	// Create inserts the row if it does not exist. It returns false without
	// error when the row was already there.
	Create(ctx context.Context, wallet *entity.Wallet) (bool, error)

	// UpdateBalance writes sequence, balance buckets, txn and checksum,
	// conditioned on the stored sequence equaling wallet.Sequence-1. It
	// returns false when the condition did not hold.
	UpdateBalance(ctx context.Context, wallet *entity.Wallet) (bool, error)

	// UpdateCredits sets the credits field conditioned on its current value.
	// Credits are outside the checksum and do not advance the sequence.
	UpdateCredits(ctx context.Context, uid xid.ID, expected, credits int64) (bool, error)
}
