package entity

import (
	"github.com/rs/xid"
)

// Credit kinds. Award entries initialize a user's credit score; payout and
// income entries are derived from committed transactions.
const (
	CreditKindAward  = "award"
	CreditKindPayout = "payout"
	CreditKindIncome = "income"
)

// ValidCreditKind reports whether the tag is a registered credit kind.
func ValidCreditKind(kind string) bool {
	return kind == CreditKindAward || kind == CreditKindPayout || kind == CreditKindIncome
}

// Credit is one append-only entry of the credit-score audit trail, keyed
// (uid, txn). Entries are never updated or deleted; the sum of a user's
// entries reconciles with Wallet.Credits.
type Credit struct {
	UID         xid.ID
	Txn         xid.ID
	Kind        string
	Amount      int64
	Description string
}
