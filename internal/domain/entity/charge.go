package entity

import (
	"github.com/rs/xid"
)

// Charge status values. Note the negative side differs from Transaction:
// a charge fails (-2) out of preparing and is refunded (-1) out of committed.
const (
	ChargeStatusFailed     int8 = -2
	ChargeStatusRefunded   int8 = -1
	ChargeStatusPreparing  int8 = 0
	ChargeStatusPrepared   int8 = 1
	ChargeStatusCommitting int8 = 2
	ChargeStatusCommitted  int8 = 3
)

// ChargeStatusName returns a human-readable name for a charge status.
func ChargeStatusName(status int8) string {
	switch status {
	case ChargeStatusFailed:
		return "failed"
	case ChargeStatusRefunded:
		return "refunded"
	case ChargeStatusPreparing:
		return "preparing"
	case ChargeStatusPrepared:
		return "prepared"
	case ChargeStatusCommitting:
		return "committing"
	case ChargeStatusCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// ChargeExpire is how long a charge stays payable.
const ChargeExpire = 24 * 60 * 60 * 1000 // milliseconds

// Charge is an external fiat payment intent, keyed (uid, id). Quantity is the
// Yiwen Coin amount purchased; Amount/AmountRefunded are fiat minor units.
// Txn and TxnRefunded link to the topup and reversing transactions this
// charge originated; the links are one-directional by id, never embedded.
type Charge struct {
	UID            xid.ID
	ID             xid.ID
	Status         int8
	UpdatedAt      int64
	ExpireAt       int64
	Quantity       int64
	Currency       string
	Amount         int64
	AmountRefunded int64
	Provider       string
	ChargeID       string
	ChargePayload  []byte
	Txn            *xid.ID
	TxnRefunded    *xid.ID
	FailureCode    string
	FailureMsg     string
}

// IsTerminal reports whether the charge reached a state no provider callback
// may move it out of. Committed still accepts a refund, so only failed and
// refunded are terminal for deduplication purposes.
func (c *Charge) IsTerminal() bool {
	return c.Status == ChargeStatusFailed || c.Status == ChargeStatusRefunded
}
