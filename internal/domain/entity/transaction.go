package entity

import (
	"github.com/rs/xid"
)

// Transaction status values. The forward path is
// preparing → prepared → committing → committed; the abort path is
// preparing/prepared → canceling → canceled. Committed and canceled are
// terminal. Once committing has been entered the saga can only move forward.
const (
	StatusCanceled   int8 = -2
	StatusCanceling  int8 = -1
	StatusPreparing  int8 = 0
	StatusPrepared   int8 = 1
	StatusCommitting int8 = 2
	StatusCommitted  int8 = 3
)

// StatusName returns a human-readable name for a transaction status.
func StatusName(status int8) string {
	switch status {
	case StatusCanceled:
		return "canceled"
	case StatusCanceling:
		return "canceling"
	case StatusPreparing:
		return "preparing"
	case StatusPrepared:
		return "prepared"
	case StatusCommitting:
		return "committing"
	case StatusCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// IsTerminalStatus reports whether no further transition is permitted.
func IsTerminalStatus(status int8) bool {
	return status == StatusCommitted || status == StatusCanceled
}

// Transaction is one logical value transfer attempt, keyed (uid, id) where
// uid is the payer. Amount, SysFee and SubShares never change after prepare;
// amount == sys_fee + sub_shares + payee_net always holds. Status is the
// saga's single source of truth for which steps have logically happened.
type Transaction struct {
	UID         xid.ID
	ID          xid.ID
	Sequence    int64
	Payee       xid.ID
	SubPayee    *xid.ID
	Status      int8
	Kind        string
	Amount      int64
	SysFee      int64
	SubShares   int64
	Description string
	Payload     []byte
}

// PayeeNet is the amount the payee receives after fee and sub-payee shares.
func (t *Transaction) PayeeNet() int64 {
	return t.Amount - t.SysFee - t.SubShares
}

// IsTerminal reports whether the transaction reached a terminal status.
func (t *Transaction) IsTerminal() bool {
	return IsTerminalStatus(t.Status)
}

// Credits derives the credit-score log entries a committed transaction
// produces. The payer of a spend-family transaction earns a payout credit for
// the full amount; sponsor and subscribe additionally grant income credits to
// the payee and, when present, the sub-payee. System-account entries and
// non-committed transactions yield nothing.
func (t *Transaction) Credits() []Credit {
	if t.Status != StatusCommitted || t.UID == SysID {
		return nil
	}

	logs := make([]Credit, 0, 3)
	switch t.Kind {
	case KindSpend, KindSponsor, KindSubscribe:
		logs = append(logs, Credit{
			UID:         t.UID,
			Txn:         t.ID,
			Kind:        CreditKindPayout,
			Amount:      t.Amount,
			Description: t.Description,
		})
	default:
		return nil
	}

	if t.Kind == KindSponsor || t.Kind == KindSubscribe {
		logs = append(logs, Credit{
			UID:         t.Payee,
			Txn:         t.ID,
			Kind:        CreditKindIncome,
			Amount:      t.PayeeNet(),
			Description: t.Description,
		})
		if t.SubShares > 0 && t.SubPayee != nil {
			logs = append(logs, Credit{
				UID:         *t.SubPayee,
				Txn:         t.ID,
				Kind:        CreditKindIncome,
				Amount:      t.SubShares,
				Description: t.Description,
			})
		}
	}

	return logs
}

// PayeeTransaction is a denormalized index row enabling transaction lookup by
// payee instead of payer. It is re-derivable from the Transaction table and
// never authoritative.
type PayeeTransaction struct {
	Payee xid.ID
	Txn   xid.ID
	UID   xid.ID
}
