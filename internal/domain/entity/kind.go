package entity

import (
	"fmt"

	"github.com/rs/xid"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// Transaction kinds. The set is closed: every kind carries a KindRule in the
// registry below, and an unregistered tag is rejected at prepare time.
const (
	KindAward     = "award"
	KindTopup     = "topup"
	KindRefund    = "refund"
	KindWithdraw  = "withdraw"
	KindSpend     = "spend"
	KindSponsor   = "sponsor"
	KindSubscribe = "subscribe"
)

// SysFeeRate is the withdraw fee rate (0.1%, minimum 1 coin).
const SysFeeRate = 0.001

// KindRule describes how one transaction kind validates its participants,
// reserves and debits the payer, credits the payee, and computes fees.
type KindRule struct {
	// SystemPayer requires the payer to be the system account; otherwise the
	// payer must be a user account.
	SystemPayer bool
	// SystemPayee requires the payee to be the system account; otherwise the
	// payee must be a user account.
	SystemPayee bool
	// AllowSubPayee permits an optional revenue-sharing sub-payee.
	AllowSubPayee bool
	// RequireCredits rejects payers with zero credits.
	RequireCredits bool

	// Quota returns the payer balance available to this kind.
	Quota func(w *Wallet) int64
	// Debit returns the payer-side balance delta for the amount. It is total:
	// commit-time debits never fail, shortfall is absorbed by the overdraw
	// rule of the kind.
	Debit func(w *Wallet, amount int64) WalletDelta
	// Credit returns the payee-side balance delta for the net amount.
	Credit func(amount int64) WalletDelta
	// Fee computes (sysFee, subShares) for the amount given the payer's
	// credits and whether a sub-payee is present.
	Fee func(amount, credits int64, hasSubPayee bool) (int64, int64)
}

// IncomeFeeRate returns the tiered fee rate for income-generating kinds,
// decreasing as the payer's credit score grows.
func IncomeFeeRate(credits int64) float32 {
	switch {
	case credits <= 9_999:
		return 0.3
	case credits <= 99_999:
		return 0.27
	case credits <= 999_999:
		return 0.24
	case credits <= 9_999_999:
		return 0.21
	case credits <= 99_999_999:
		return 0.18
	case credits <= 999_999_999:
		return 0.15
	case credits <= 9_999_999_999:
		return 0.12
	default:
		return 0.09
	}
}

func noFee(_, _ int64, _ bool) (int64, int64) { return 0, 0 }

func withdrawFee(amount, _ int64, _ bool) (int64, int64) {
	sysFee := int64(float32(amount) * SysFeeRate)
	if sysFee < 1 {
		sysFee = 1
	}
	return sysFee, 0
}

func incomeFee(amount, credits int64, hasSubPayee bool) (int64, int64) {
	sysFee := int64(float32(amount) * IncomeFeeRate(credits))
	if sysFee < 1 {
		sysFee = 1
	}
	var subShares int64
	if hasSubPayee {
		subShares = (amount - sysFee) / 2
	}
	return sysFee, subShares
}

// spendDebit drains award first, then topup, then income. Shortfall beyond
// all three buckets ends up as negative topup, bounded by MaxOverdraw at
// prepare time via the quota.
func spendDebit(w *Wallet, amount int64) WalletDelta {
	next := *w
	next.Award -= amount
	if next.Award < 0 {
		next.Topup += next.Award
		next.Award = 0
		if next.Topup < 0 {
			next.Income += next.Topup
			next.Topup = 0
			if next.Income < 0 {
				next.Topup, next.Income = next.Income, 0
			}
		}
	}
	return WalletDelta{
		Award:  next.Award - w.Award,
		Topup:  next.Topup - w.Topup,
		Income: next.Income - w.Income,
	}
}

func userBalanceQuota(w *Wallet) int64 { return w.Balance() }

var kindRegistry = map[string]*KindRule{
	KindAward: {
		SystemPayer: true,
		Quota:       func(_ *Wallet) int64 { return int64(1)<<62 - 1 },
		Debit:       func(_ *Wallet, amount int64) WalletDelta { return WalletDelta{Award: -amount} },
		Credit:      func(amount int64) WalletDelta { return WalletDelta{Award: amount} },
		Fee:         noFee,
	},
	KindTopup: {
		SystemPayer: true,
		Quota:       func(_ *Wallet) int64 { return int64(1)<<62 - 1 },
		Debit:       func(_ *Wallet, amount int64) WalletDelta { return WalletDelta{Topup: -amount} },
		Credit:      func(amount int64) WalletDelta { return WalletDelta{Topup: amount} },
		Fee:         noFee,
	},
	KindRefund: {
		SystemPayee:    true,
		RequireCredits: true,
		Quota:          func(w *Wallet) int64 { return w.Topup },
		Debit:          func(_ *Wallet, amount int64) WalletDelta { return WalletDelta{Topup: -amount} },
		Credit:         func(amount int64) WalletDelta { return WalletDelta{Topup: amount} },
		Fee:            noFee,
	},
	KindWithdraw: {
		SystemPayee:    true,
		RequireCredits: true,
		Quota:          func(w *Wallet) int64 { return w.Income },
		Debit:          func(_ *Wallet, amount int64) WalletDelta { return WalletDelta{Income: -amount} },
		Credit:         func(amount int64) WalletDelta { return WalletDelta{Topup: amount} },
		Fee:            withdrawFee,
	},
	KindSpend: {
		SystemPayee: true,
		Quota:       func(w *Wallet) int64 { return w.Balance() + MaxOverdraw },
		Debit:       spendDebit,
		Credit:      func(amount int64) WalletDelta { return WalletDelta{Income: amount} },
		Fee:         noFee,
	},
	KindSponsor: {
		AllowSubPayee:  true,
		RequireCredits: true,
		Quota:          userBalanceQuota,
		Debit:          spendDebit,
		Credit:         func(amount int64) WalletDelta { return WalletDelta{Income: amount} },
		Fee:            incomeFee,
	},
	KindSubscribe: {
		AllowSubPayee:  true,
		RequireCredits: true,
		Quota:          userBalanceQuota,
		Debit:          spendDebit,
		Credit:         func(amount int64) WalletDelta { return WalletDelta{Income: amount} },
		Fee:            incomeFee,
	},
}

// LookupKind returns the rule registered for the kind tag.
func LookupKind(kind string) (*KindRule, error) {
	rule, ok := kindRegistry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidKind, kind)
	}
	return rule, nil
}

// Kinds returns the registered kind tags.
func Kinds() []string {
	return []string{KindAward, KindTopup, KindRefund, KindWithdraw, KindSpend, KindSponsor, KindSubscribe}
}

// CheckPayer validates the payer account for the kind.
func (r *KindRule) CheckPayer(kind string, uid xid.ID) error {
	if r.SystemPayer != (uid == SysID) {
		return fmt.Errorf("%w: payer %s for %s transaction", errs.ErrInvalidParticipant, uid, kind)
	}
	return nil
}

// CheckPayee validates the payee account for the kind.
func (r *KindRule) CheckPayee(kind string, uid xid.ID) error {
	if r.SystemPayee != (uid == SysID) {
		return fmt.Errorf("%w: payee %s for %s transaction", errs.ErrInvalidParticipant, uid, kind)
	}
	return nil
}

// CheckSubPayee validates an optional sub-payee: only revenue-sharing kinds
// accept one, and it must be a user distinct from both payer and payee.
func (r *KindRule) CheckSubPayee(kind string, payer, payee, subPayee xid.ID) error {
	if !r.AllowSubPayee {
		return fmt.Errorf("%w: sub_payee %s for %s transaction", errs.ErrInvalidParticipant, subPayee, kind)
	}
	if subPayee == SysID || subPayee == payer || subPayee == payee {
		return fmt.Errorf("%w: sub_payee %s for %s transaction", errs.ErrInvalidParticipant, subPayee, kind)
	}
	return nil
}
