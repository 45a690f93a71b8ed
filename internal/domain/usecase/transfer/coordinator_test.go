package transfer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/credit"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/logger"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/memory"
	timeadapter "github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/time"
)

type fixture struct {
	coord   *Coordinator
	wallets *wallet.Store
	txns    *memory.TransactionLog
	payees  *memory.PayeeIndex
	credits *memory.CreditLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var key [32]byte
	copy(key[:], "0123456789abcdef0123456789abcdef")

	repo := memory.NewWalletRepo()
	txns := memory.NewTransactionLog()
	payees := memory.NewPayeeIndex()
	creditLog := memory.NewCreditLog()
	tp := timeadapter.NewMockTimeProvider(time.Unix(1700000000, 0))
	log := logger.NewNoopLogger()

	wallets := wallet.NewStore(repo, wallet.NewSigner(key), tp, log)
	credits := credit.NewService(wallets, creditLog, log)
	return &fixture{
		coord:   NewCoordinator(wallets, txns, payees, credits, log),
		wallets: wallets,
		txns:    txns,
		payees:  payees,
		credits: creditLog,
	}
}

// fund commits a topup of amount from the system account to uid.
func (f *fixture) fund(t *testing.T, uid xid.ID, amount int64) {
	t.Helper()
	ctx := context.Background()
	txn, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: entity.SysID, Payee: uid, Kind: entity.KindTopup, Amount: amount,
	})
	require.NoError(t, err)
	_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	_, err = f.coord.Commit(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, uid xid.ID) *entity.Wallet {
	t.Helper()
	w, err := f.wallets.Get(context.Background(), uid)
	require.NoError(t, err)
	return w
}

func (f *fixture) run(t *testing.T, in PrepareInput) *entity.Transaction {
	t.Helper()
	ctx := context.Background()
	txn, err := f.coord.Prepare(ctx, in)
	require.NoError(t, err)
	_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	out, err := f.coord.Commit(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	return out
}

func int64p(v int64) *int64 { return &v }

func TestPrepareRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 1000)

	tests := []struct {
		name string
		in   PrepareInput
		want error
	}{
		{
			name: "zero amount",
			in:   PrepareInput{Payer: entity.SysID, Payee: user, Kind: entity.KindTopup},
			want: errs.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			in:   PrepareInput{Payer: entity.SysID, Payee: user, Kind: entity.KindTopup, Amount: -5},
			want: errs.ErrInvalidAmount,
		},
		{
			name: "unknown kind",
			in:   PrepareInput{Payer: entity.SysID, Payee: user, Kind: "gift", Amount: 10},
			want: errs.ErrInvalidKind,
		},
		{
			name: "topup from user payer",
			in:   PrepareInput{Payer: user, Payee: xid.New(), Kind: entity.KindTopup, Amount: 10},
			want: errs.ErrInvalidParticipant,
		},
		{
			name: "spend to user payee",
			in:   PrepareInput{Payer: user, Payee: xid.New(), Kind: entity.KindSpend, Amount: 10},
			want: errs.ErrInvalidParticipant,
		},
		{
			name: "sub payee on spend",
			in: PrepareInput{
				Payer: user, Payee: entity.SysID, Kind: entity.KindSpend,
				Amount: 10, SubPayee: func() *xid.ID { id := xid.New(); return &id }(),
			},
			want: errs.ErrInvalidParticipant,
		},
		{
			name: "sub shares without sub payee",
			in: PrepareInput{
				Payer: user, Payee: entity.SysID, Kind: entity.KindSpend,
				Amount: 10, SubShares: int64p(3),
			},
			want: errs.ErrInvariantViolation,
		},
		{
			name: "fee exceeds amount",
			in: PrepareInput{
				Payer: user, Payee: entity.SysID, Kind: entity.KindSpend,
				Amount: 10, SysFee: int64p(11),
			},
			want: errs.ErrInvariantViolation,
		},
		{
			name: "payer as payee",
			in:   PrepareInput{Payer: user, Payee: user, Kind: entity.KindSponsor, Amount: 10},
			want: errs.ErrInvalidParticipant,
		},
		{
			name: "unknown payer wallet",
			in:   PrepareInput{Payer: xid.New(), Payee: entity.SysID, Kind: entity.KindSpend, Amount: 10},
			want: errs.ErrInsufficientBalance,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coord.Prepare(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPrepareRequiresCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payer, payee := xid.New(), xid.New()
	f.fund(t, payer, 1000)
	f.fund(t, payee, 1)

	_, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: payer, Payee: payee, Kind: entity.KindSponsor, Amount: 100,
	})
	assert.ErrorIs(t, err, errs.ErrRequireCredits)
}

func TestSelfPaymentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 1000)
	seedCredits(t, f, user, 10)

	before := f.balance(t, user)
	_, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: user, Kind: entity.KindSponsor, Amount: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidParticipant)

	// nothing moves and nothing vanishes: paying yourself would otherwise
	// no-op the payee credit on the already-marked wallet and burn the net
	after := f.balance(t, user)
	assert.Equal(t, before.Sequence, after.Sequence)
	assert.Equal(t, before.Balance(), after.Balance())
	assert.Equal(t, int64(1000), after.Balance())

	pending, err := f.txns.ListPending(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPrepareReservesPendingAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 100)

	// quota for spend is balance + overdraw allowance
	first, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 150,
	})
	require.NoError(t, err)

	// the first transaction's amount is reserved while non-terminal
	_, err = f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 100,
	})
	require.Error(t, err)
	var ibe *errs.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, int64(50), ibe.Available)

	// canceling releases the reservation
	_, err = f.coord.Cancel(ctx, first.UID, first.ID)
	require.NoError(t, err)
	_, err = f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 100,
	})
	assert.NoError(t, err)
}

func TestTopupLifecycle(t *testing.T) {
	f := newFixture(t)
	user := xid.New()
	f.fund(t, user, 100)

	uw := f.balance(t, user)
	assert.Equal(t, int64(100), uw.Topup)
	assert.Equal(t, int64(100), uw.Balance())
	assert.Equal(t, int64(1), uw.Sequence)

	// the system wallet conventionally goes negative as value is issued
	sw := f.balance(t, entity.SysID)
	assert.Equal(t, int64(-100), sw.Topup)
	assert.Equal(t, int64(1), sw.Sequence)

	rows, err := f.payees.List(context.Background(), user, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entity.SysID, rows[0].UID)
}

func TestWithdrawChargesFee(t *testing.T) {
	f := newFixture(t)
	sponsor, user := xid.New(), xid.New()
	f.fund(t, sponsor, 2000)
	f.fund(t, user, 1)
	seedCredits(t, f, sponsor, 10)
	seedCredits(t, f, user, 10)

	// earn income for the user: 1000 sponsored, 30% fee at the lowest tier
	f.run(t, PrepareInput{
		Payer: sponsor, Payee: user, Kind: entity.KindSponsor, Amount: 1000,
	})
	require.Equal(t, int64(700), f.balance(t, user).Income)

	sysBefore := f.balance(t, entity.SysID)
	txn := f.run(t, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindWithdraw, Amount: 100,
	})
	// 0.1% of 100 rounds to zero, floor is 1
	assert.Equal(t, int64(1), txn.SysFee)

	w := f.balance(t, user)
	assert.Equal(t, int64(600), w.Income)

	// the payee is the system account: net topup plus the folded fee,
	// applied in one wallet step
	sysAfter := f.balance(t, entity.SysID)
	assert.Equal(t, int64(99), sysAfter.Topup-sysBefore.Topup)
	assert.Equal(t, int64(1), sysAfter.Income-sysBefore.Income)
	assert.Equal(t, sysBefore.Sequence+1, sysAfter.Sequence)
}

func TestWithdrawQuotaIsIncomeOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 1000)
	seedCredits(t, f, user, 10)

	// topup balance does not back a withdraw
	_, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindWithdraw, Amount: 100,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
}

func TestSponsorPinnedSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payer, payee, sub := xid.New(), xid.New(), xid.New()
	f.fund(t, payer, 500)
	f.fund(t, payee, 1)
	f.fund(t, sub, 1)
	seedCredits(t, f, payer, 50)

	txn := f.run(t, PrepareInput{
		Payer: payer, Payee: payee, SubPayee: &sub,
		Kind: entity.KindSponsor, Amount: 100,
		SysFee: int64p(1), SubShares: int64p(5),
	})
	assert.Equal(t, int64(94), txn.PayeeNet())

	assert.Equal(t, int64(400), f.balance(t, payer).Balance())
	assert.Equal(t, int64(94), f.balance(t, payee).Income)
	assert.Equal(t, int64(5), f.balance(t, sub).Income)
	assert.Equal(t, int64(1), f.balance(t, entity.SysID).Income)

	// both receivers get payee-side index rows for the sponsor transaction,
	// newest first, on top of the row their funding topup wrote
	rows, err := f.payees.List(ctx, payee, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, txn.ID, rows[0].Txn)
	assert.Equal(t, payer, rows[0].UID)

	rows, err = f.payees.List(ctx, sub, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, txn.ID, rows[0].Txn)
	assert.Equal(t, payer, rows[0].UID)
}

func TestSponsorDerivedFee(t *testing.T) {
	f := newFixture(t)
	payer, payee, sub := xid.New(), xid.New(), xid.New()
	f.fund(t, payer, 500)
	f.fund(t, payee, 1)
	f.fund(t, sub, 1)
	seedCredits(t, f, payer, 100)

	// lowest credit tier: 30% fee, then half the remainder to the sub-payee
	txn := f.run(t, PrepareInput{
		Payer: payer, Payee: payee, SubPayee: &sub,
		Kind: entity.KindSponsor, Amount: 100,
	})
	assert.Equal(t, int64(30), txn.SysFee)
	assert.Equal(t, int64(35), txn.SubShares)
	assert.Equal(t, int64(35), txn.PayeeNet())
}

func TestSpendOverdraw(t *testing.T) {
	f := newFixture(t)
	user := xid.New()
	f.fund(t, user, 50)

	f.run(t, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 100,
	})

	w := f.balance(t, user)
	assert.Equal(t, int64(0), w.Award)
	assert.Equal(t, int64(-50), w.Topup)
	assert.Equal(t, int64(0), w.Income)
}

func TestCommitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 200)

	txn, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 100,
	})
	require.NoError(t, err)
	_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
	require.NoError(t, err)

	first, err := f.coord.Commit(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, first.Status)

	seqAfter := f.balance(t, user).Sequence
	again, err := f.coord.Commit(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, again.Status)
	assert.Equal(t, int64(100), f.balance(t, user).Balance())
	assert.Equal(t, seqAfter, f.balance(t, user).Sequence)
}

func TestConcurrentCommitsConverge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 100)

	txn, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: entity.SysID, Payee: user, Kind: entity.KindTopup, Amount: 50,
	})
	require.NoError(t, err)
	_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
	require.NoError(t, err)

	// racing committers must all terminate committed: one wins each status
	// CAS, the rest observe the winner and converge
	const committers = 4
	results := make([]*entity.Transaction, committers)
	errors := make([]error, committers)
	var wg sync.WaitGroup
	for i := 0; i < committers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errors[i] = f.coord.Commit(ctx, txn.UID, txn.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < committers; i++ {
		require.NoError(t, errors[i], "committer %d", i)
		assert.Equal(t, entity.StatusCommitted, results[i].Status, "committer %d", i)
	}

	// the topup applied exactly once
	w := f.balance(t, user)
	assert.Equal(t, int64(150), w.Topup)
	assert.Equal(t, int64(2), w.Sequence)
	assert.Equal(t, int64(-150), f.balance(t, entity.SysID).Topup)
}

func TestCommitResumesAfterCrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 200)

	txn, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 100,
	})
	require.NoError(t, err)
	_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
	require.NoError(t, err)

	// simulate a committer that moved to committing, debited the payer, then died
	ok, err := f.txns.SetStatus(ctx, txn.UID, txn.ID, entity.StatusPrepared, entity.StatusCommitting)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.wallets.Apply(ctx, user, txn.ID, func(w *entity.Wallet) error {
		w.Topup -= 100
		return nil
	})
	require.NoError(t, err)

	// resuming finishes the remaining steps without double-debiting
	out, err := f.coord.Commit(ctx, txn.UID, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCommitted, out.Status)
	assert.Equal(t, int64(100), f.balance(t, user).Balance())
	assert.Equal(t, int64(100), f.balance(t, entity.SysID).Income)
}

func TestCancelBeforeCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 200)

	for _, advance := range []bool{false, true} {
		txn, err := f.coord.Prepare(ctx, PrepareInput{
			Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 50,
		})
		require.NoError(t, err)
		if advance {
			_, err = f.coord.AdvanceToPrepared(ctx, txn.UID, txn.ID)
			require.NoError(t, err)
		}

		out, err := f.coord.Cancel(ctx, txn.UID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCanceled, out.Status)

		// canceling again stays canceled
		out, err = f.coord.Cancel(ctx, txn.UID, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCanceled, out.Status)

		// no wallet was touched
		assert.Equal(t, int64(200), f.balance(t, user).Balance())
	}
}

func TestCancelAfterCommitRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 200)

	txn := f.run(t, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 50,
	})
	_, err := f.coord.Cancel(ctx, txn.UID, txn.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}

func TestCommitAfterCancelRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := xid.New()
	f.fund(t, user, 200)

	txn, err := f.coord.Prepare(ctx, PrepareInput{
		Payer: user, Payee: entity.SysID, Kind: entity.KindSpend, Amount: 50,
	})
	require.NoError(t, err)
	_, err = f.coord.Cancel(ctx, txn.UID, txn.ID)
	require.NoError(t, err)

	_, err = f.coord.Commit(ctx, txn.UID, txn.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}

func TestCommittedCreditEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payer, payee := xid.New(), xid.New()
	f.fund(t, payer, 500)
	f.fund(t, payee, 1)
	seedCredits(t, f, payer, 10)
	seedCredits(t, f, payee, 10)

	txn := f.run(t, PrepareInput{
		Payer: payer, Payee: payee, Kind: entity.KindSponsor, Amount: 100,
	})

	// payer earns a payout credit for the full amount
	entry, err := f.credits.Get(ctx, payer, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CreditKindPayout, entry.Kind)
	assert.Equal(t, int64(100), entry.Amount)

	// payee earns an income credit for the net
	entry, err = f.credits.Get(ctx, payee, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CreditKindIncome, entry.Kind)
	assert.Equal(t, txn.PayeeNet(), entry.Amount)

	assert.Equal(t, int64(10+100), f.balance(t, payer).Credits)
	assert.Equal(t, int64(10)+txn.PayeeNet(), f.balance(t, payee).Credits)
}

// seedCredits initializes a wallet's credit score through an award entry.
func seedCredits(t *testing.T, f *fixture, uid xid.ID, amount int64) {
	t.Helper()
	svc := credit.NewService(f.wallets, f.credits, logger.NewNoopLogger())
	require.NoError(t, svc.Award(context.Background(), uid, xid.New(), amount, "seed"))
}
