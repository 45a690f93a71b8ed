package charge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	paymentport "github.com/yiwen-ai/walletbase/internal/domain/port/payment"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/credit"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/transfer"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/logger"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/memory"
	paymentadapter "github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/payment"
	timeadapter "github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/time"
)

type fixture struct {
	coord   *Coordinator
	wallets *wallet.Store
	credits *credit.Service
	charges *memory.ChargeStore
	gateway *paymentadapter.FakeGateway
	tp      *timeadapter.MockTimeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var key [32]byte
	copy(key[:], "0123456789abcdef0123456789abcdef")

	repo := memory.NewWalletRepo()
	log := logger.NewNoopLogger()
	tp := timeadapter.NewMockTimeProvider(time.Now())

	wallets := wallet.NewStore(repo, wallet.NewSigner(key), tp, log)
	credits := credit.NewService(wallets, memory.NewCreditLog(), log)
	transfers := transfer.NewCoordinator(wallets, memory.NewTransactionLog(), memory.NewPayeeIndex(), credits, log)

	charges := memory.NewChargeStore()
	gateway := paymentadapter.NewFakeGateway("fakepay")
	coord := NewCoordinator(charges, memory.NewCustomerStore(), transfers,
		paymentport.NewRegistry(gateway), tp, log)

	return &fixture{
		coord:   coord,
		wallets: wallets,
		credits: credits,
		charges: charges,
		gateway: gateway,
		tp:      tp,
	}
}

func validInput(uid xid.ID) CreateInput {
	return CreateInput{
		UID:      uid,
		Provider: "fakepay",
		Quantity: 500,
		Currency: "usd",
		Amount:   500,
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		want   error
	}{
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }, errs.ErrInvalidAmount},
		{"system account", func(in *CreateInput) { in.UID = entity.SysID }, errs.ErrInvalidParticipant},
		{"unknown currency", func(in *CreateInput) { in.Currency = "XXX" }, errs.ErrInvalidCurrency},
		{"amount below minimum", func(in *CreateInput) { in.Amount = 100 }, errs.ErrInvalidCurrency},
		{"amount above maximum", func(in *CreateInput) { in.Amount = 500000 }, errs.ErrInvalidCurrency},
		{"unknown provider", func(in *CreateInput) { in.Provider = "other" }, errs.ErrProviderError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(uid)
			tc.mutate(&in)
			_, err := f.coord.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateOpensProviderIntent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusPrepared, ch.Status)
	assert.NotEmpty(t, ch.ChargeID)
	assert.Equal(t, "USD", ch.Currency)
	assert.Equal(t, ch.UpdatedAt+entity.ChargeExpire, ch.ExpireAt)
	assert.Nil(t, ch.Txn)

	intent, err := f.gateway.QueryStatus(ctx, ch.ChargeID)
	require.NoError(t, err)
	assert.Equal(t, paymentport.IntentPending, intent.Status)
}

func TestCreateFailsOutOnProviderError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	f.gateway.FailNext(errors.New("card network down"))
	_, err := f.coord.Create(ctx, validInput(uid))
	assert.ErrorIs(t, err, errs.ErrProviderError)

	list, err := f.coord.List(ctx, uid, nil, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.ChargeStatusFailed, list[0].Status)
	assert.Equal(t, "create_intent_failed", list[0].FailureCode)
	assert.Nil(t, list[0].Txn)
}

func TestWebhookSucceededMintsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	intent, err := f.gateway.Settle(ch.ChargeID, paymentport.IntentSucceeded, "", "")
	require.NoError(t, err)

	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))

	ch, err = f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusCommitted, ch.Status)
	require.NotNil(t, ch.Txn)

	w, err := f.wallets.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Topup)
	seq := w.Sequence

	// an at-least-once provider redelivers; the coins must not double
	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))
	w, err = f.wallets.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Topup)
	assert.Equal(t, seq, w.Sequence)
}

func TestWebhookFailedMarksCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	intent, err := f.gateway.Settle(ch.ChargeID, paymentport.IntentFailed, "card_declined", "declined")
	require.NoError(t, err)

	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))

	ch, err = f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusFailed, ch.Status)
	assert.Equal(t, "card_declined", ch.FailureCode)
	assert.Nil(t, ch.Txn)

	// no coins were minted
	_, err = f.wallets.Get(ctx, uid)
	assert.True(t, errs.IsNotFoundError(err))

	// a late success for a failed charge is ignored
	intent.Status = paymentport.IntentSucceeded
	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))
	ch, err = f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusFailed, ch.Status)
}

func TestWebhookUnknownChargeAcknowledged(t *testing.T) {
	f := newFixture(t)
	err := f.coord.HandleEvent(context.Background(), "fakepay", &paymentport.Intent{
		ID: "pi_unknown", Status: paymentport.IntentSucceeded,
	})
	assert.NoError(t, err)
}

func TestCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	_, err = f.gateway.Settle(ch.ChargeID, paymentport.IntentSucceeded, "", "")
	require.NoError(t, err)

	first, err := f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusCommitted, first.Status)

	again, err := f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusCommitted, again.Status)
	assert.Equal(t, first.Txn, again.Txn)

	w, err := f.wallets.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Topup)
}

func TestCompleteResumesRecordedTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)

	// a completer entered committing and died right after recording the txn
	ok, err := f.charges.SetStatus(ctx, uid, ch.ID, entity.ChargeStatusPrepared, entity.ChargeStatusCommitting)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusCommitted, out.Status)

	w, err := f.wallets.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Topup)
}

func TestRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	_, err = f.gateway.Settle(ch.ChargeID, paymentport.IntentSucceeded, "", "")
	require.NoError(t, err)
	_, err = f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	// refund transactions require an initialized credit score
	require.NoError(t, f.credits.Award(ctx, uid, xid.New(), 10, "seed"))

	out, err := f.coord.Refund(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusRefunded, out.Status)
	assert.Equal(t, ch.Amount, out.AmountRefunded)
	require.NotNil(t, out.TxnRefunded)

	// the coins went back to the system account
	w, err := f.wallets.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Topup)

	// refunding again is a no-op
	again, err := f.coord.Refund(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusRefunded, again.Status)
	assert.Equal(t, int64(0), mustWallet(t, f, uid).Topup)
}

func TestRefundRequiresCommitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)

	_, err = f.coord.Refund(ctx, uid, ch.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidStateTransition)
}

func TestRefundAbortsOnProviderError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	_, err = f.gateway.Settle(ch.ChargeID, paymentport.IntentSucceeded, "", "")
	require.NoError(t, err)
	_, err = f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.credits.Award(ctx, uid, xid.New(), 10, "seed"))

	f.gateway.FailNext(errors.New("refund window closed"))
	_, err = f.coord.Refund(ctx, uid, ch.ID)
	assert.ErrorIs(t, err, errs.ErrProviderError)

	// the user keeps the coins and the charge stays committed
	assert.Equal(t, int64(500), mustWallet(t, f, uid).Topup)
	out, err := f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusCommitted, out.Status)
	assert.Nil(t, out.TxnRefunded)
}

func TestWebhookRefundedReversesCharge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	_, err = f.gateway.Settle(ch.ChargeID, paymentport.IntentSucceeded, "", "")
	require.NoError(t, err)
	_, err = f.coord.Complete(ctx, uid, ch.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.credits.Award(ctx, uid, xid.New(), 10, "seed"))

	// the provider reversed the money on its side and tells us after the
	// fact; any gateway call from this path would trip the armed failure
	intent, err := f.gateway.Settle(ch.ChargeID, paymentport.IntentRefunded, "", "")
	require.NoError(t, err)
	f.gateway.FailNext(errors.New("gateway must not be called"))
	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))

	out, err := f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusRefunded, out.Status)
	assert.Equal(t, ch.Amount, out.AmountRefunded)
	require.NotNil(t, out.TxnRefunded)
	assert.Equal(t, int64(0), mustWallet(t, f, uid).Topup)

	// a redelivery of the refund event is acknowledged without effect
	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))
	assert.Equal(t, int64(0), mustWallet(t, f, uid).Topup)
}

func TestWebhookRefundedBeforeSettlementIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	ch, err := f.coord.Create(ctx, validInput(uid))
	require.NoError(t, err)
	intent, err := f.gateway.Settle(ch.ChargeID, paymentport.IntentRefunded, "", "")
	require.NoError(t, err)

	require.NoError(t, f.coord.HandleEvent(ctx, "fakepay", intent))
	out, err := f.coord.Get(ctx, uid, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChargeStatusPrepared, out.Status)
	assert.Nil(t, out.TxnRefunded)
}

func TestSaveCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()

	cust, err := f.coord.SaveCustomer(ctx, uid, "fakepay", "cus_001", nil)
	require.NoError(t, err)
	assert.Equal(t, "cus_001", cust.Customer)

	cust, err = f.coord.SaveCustomer(ctx, uid, "fakepay", "cus_002", nil)
	require.NoError(t, err)
	assert.Equal(t, "cus_002", cust.Customer)
	assert.Contains(t, cust.Customers, "cus_001")
	assert.Contains(t, cust.Customers, "cus_002")

	_, err = f.coord.SaveCustomer(ctx, uid, "other", "cus_003", nil)
	assert.ErrorIs(t, err, errs.ErrProviderError)
}

func mustWallet(t *testing.T, f *fixture, uid xid.ID) *entity.Wallet {
	t.Helper()
	w, err := f.wallets.Get(context.Background(), uid)
	require.NoError(t, err)
	return w
}
