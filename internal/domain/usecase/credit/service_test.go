package credit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/logger"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/memory"
	timeadapter "github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/time"
)

type fixture struct {
	wallets *wallet.Store
	repo    *memory.WalletRepo
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var key [32]byte
	copy(key[:], "a test key that is 32 bytes long")

	repo := memory.NewWalletRepo()
	store := wallet.NewStore(
		repo,
		wallet.NewSigner(key),
		timeadapter.NewMockTimeProvider(time.Now()),
		logger.NewNoopLogger(),
	)
	return &fixture{
		wallets: store,
		repo:    repo,
		svc:     NewService(store, memory.NewCreditLog(), logger.NewNoopLogger()),
	}
}

// seedWallet creates a wallet row so credit counters have a place to land
func (f *fixture) seedWallet(t *testing.T, uid xid.ID) {
	t.Helper()
	ok, err := f.repo.Create(context.Background(), entity.NewWallet(uid))
	require.NoError(t, err)
	require.True(t, ok)
}

func (f *fixture) credits(t *testing.T, uid xid.ID) int64 {
	t.Helper()
	w, err := f.wallets.Get(context.Background(), uid)
	require.NoError(t, err)
	return w.Credits
}

func TestAwardSeedsScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()
	f.seedWallet(t, uid)

	require.NoError(t, f.svc.Award(ctx, uid, xid.New(), 100, "signup bonus"))
	assert.Equal(t, int64(100), f.credits(t, uid))

	entries, err := f.svc.List(ctx, uid, persistence.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.CreditKindAward, entries[0].Kind)
}

func TestAwardRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Award(context.Background(), xid.New(), xid.New(), 0, "")
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
}

func TestSaveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()
	f.seedWallet(t, uid)
	require.NoError(t, f.svc.Award(ctx, uid, xid.New(), 10, ""))

	entry := &entity.Credit{UID: uid, Txn: xid.New(), Kind: entity.CreditKindPayout, Amount: 50}
	require.NoError(t, f.svc.Save(ctx, entry))
	require.NoError(t, f.svc.Save(ctx, entry))

	assert.Equal(t, int64(60), f.credits(t, uid))
}

func TestSaveSkipsUninitializedScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := xid.New()
	f.seedWallet(t, uid)

	// no award entry yet, payout accrues nothing
	require.NoError(t, f.svc.Save(ctx, &entity.Credit{
		UID: uid, Txn: xid.New(), Kind: entity.CreditKindPayout, Amount: 50,
	}))
	assert.Zero(t, f.credits(t, uid))

	entries, err := f.svc.List(ctx, uid, persistence.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveDropsSystemEntries(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Save(context.Background(), &entity.Credit{
		UID: entity.SysID, Txn: xid.New(), Kind: entity.CreditKindIncome, Amount: 5,
	}))
}

func TestSaveRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	uid := xid.New()
	f.seedWallet(t, uid)

	err := f.svc.Save(context.Background(), &entity.Credit{
		UID: uid, Txn: xid.New(), Kind: "karma", Amount: 5,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidKind)
}
