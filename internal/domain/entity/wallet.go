package entity

import (
	"github.com/rs/xid"
)

// SysID is the reserved all-zero account id. The system wallet receives fees,
// issues awards and topups, and conventionally holds non-positive totals.
var SysID = xid.ID{}

// MaxOverdraw is how far a user wallet's topup balance may go negative when a
// spend drains all three balance buckets.
const MaxOverdraw int64 = 100

// Wallet is the single ledger row for one account. Sequence strictly
// increases by 1 on every accepted mutation and doubles as the optimistic
// concurrency version; Txn records the id of the last transaction applied,
// which is what makes re-deliveries of the same transaction a no-op.
type Wallet struct {
	UID      xid.ID
	Sequence int64
	Award    int64
	Topup    int64
	Income   int64
	Credits  int64
	Txn      xid.ID
	Checksum []byte
}

// NewWallet returns an empty wallet row for the given account.
func NewWallet(uid xid.ID) *Wallet {
	return &Wallet{UID: uid}
}

// IsSystem reports whether this is the reserved system account.
func (w *Wallet) IsSystem() bool {
	return w.UID == SysID
}

// Balance is the spendable total across all three buckets.
func (w *Wallet) Balance() int64 {
	return w.Award + w.Topup + w.Income
}

// Clone returns a deep copy, so callers can mutate a candidate row without
// touching the one a store handed out.
func (w *Wallet) Clone() *Wallet {
	c := *w
	if w.Checksum != nil {
		c.Checksum = make([]byte, len(w.Checksum))
		copy(c.Checksum, w.Checksum)
	}
	return &c
}

// WalletDelta is a set of signed balance changes applied atomically to one
// wallet row by a single conditional write.
type WalletDelta struct {
	Award  int64
	Topup  int64
	Income int64
}

// IsZero reports whether the delta changes nothing.
func (d WalletDelta) IsZero() bool {
	return d.Award == 0 && d.Topup == 0 && d.Income == 0
}

// Apply adds the delta to the wallet's balance buckets.
func (d WalletDelta) Apply(w *Wallet) {
	w.Award += d.Award
	w.Topup += d.Topup
	w.Income += d.Income
}
