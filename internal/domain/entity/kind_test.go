package entity

import (
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

func TestLookupKind(t *testing.T) {
	for _, kind := range Kinds() {
		rule, err := LookupKind(kind)
		require.NoError(t, err, kind)
		require.NotNil(t, rule, kind)
	}

	_, err := LookupKind("bribe")
	assert.ErrorIs(t, err, errs.ErrInvalidKind)
}

func TestIncomeFeeRateTiers(t *testing.T) {
	tests := []struct {
		credits int64
		rate    float32
	}{
		{0, 0.3},
		{9_999, 0.3},
		{10_000, 0.27},
		{99_999, 0.27},
		{100_000, 0.24},
		{1_000_000, 0.21},
		{10_000_000, 0.18},
		{100_000_000, 0.15},
		{1_000_000_000, 0.12},
		{10_000_000_000, 0.09},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rate, IncomeFeeRate(tt.credits), "credits=%d", tt.credits)
	}
}

func TestIncomeFee(t *testing.T) {
	rule, err := LookupKind(KindSponsor)
	require.NoError(t, err)

	tests := []struct {
		credits   int64
		sysFee    int64
		subShares int64
	}{
		{0, 30, 35},
		{10_000, 27, 36},
		{100_000, 24, 38},
		{1_000_000, 21, 39},
		{100_000_000, 15, 42},
		{10_000_000_000, 9, 45},
	}
	for _, tt := range tests {
		sysFee, subShares := rule.Fee(100, tt.credits, true)
		assert.Equal(t, tt.sysFee, sysFee, "credits=%d", tt.credits)
		assert.Equal(t, tt.subShares, subShares, "credits=%d", tt.credits)
	}

	// no sub-payee, no shares
	sysFee, subShares := rule.Fee(100, 0, false)
	assert.Equal(t, int64(30), sysFee)
	assert.Zero(t, subShares)

	// fee floor
	sysFee, _ = rule.Fee(1, 0, false)
	assert.Equal(t, int64(1), sysFee)
}

func TestWithdrawFee(t *testing.T) {
	rule, err := LookupKind(KindWithdraw)
	require.NoError(t, err)

	sysFee, subShares := rule.Fee(100, 0, false)
	assert.Equal(t, int64(1), sysFee, "fee floor is one coin")
	assert.Zero(t, subShares)

	sysFee, _ = rule.Fee(10_000, 0, false)
	assert.Equal(t, int64(10), sysFee)
}

func TestSpendDebitWaterfall(t *testing.T) {
	tests := []struct {
		name   string
		wallet Wallet
		amount int64
		want   WalletDelta
	}{
		{
			name:   "award covers everything",
			wallet: Wallet{Award: 100, Topup: 50, Income: 50},
			amount: 80,
			want:   WalletDelta{Award: -80},
		},
		{
			name:   "spills into topup",
			wallet: Wallet{Award: 30, Topup: 50, Income: 50},
			amount: 60,
			want:   WalletDelta{Award: -30, Topup: -30},
		},
		{
			name:   "spills into income",
			wallet: Wallet{Award: 10, Topup: 20, Income: 50},
			amount: 60,
			want:   WalletDelta{Award: -10, Topup: -20, Income: -30},
		},
		{
			name:   "shortfall lands as negative topup",
			wallet: Wallet{Award: 10, Topup: 20, Income: 30},
			amount: 100,
			want:   WalletDelta{Award: -10, Topup: -60, Income: -30},
		},
		{
			name:   "empty wallet goes straight to overdraw",
			wallet: Wallet{},
			amount: 40,
			want:   WalletDelta{Topup: -40},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := spendDebit(&tt.wallet, tt.amount)
			assert.Equal(t, tt.want, got)

			// the delta always removes exactly the amount
			assert.Equal(t, -tt.amount, got.Award+got.Topup+got.Income)
		})
	}
}

func TestKindQuotas(t *testing.T) {
	w := &Wallet{Award: 10, Topup: 20, Income: 30}

	spend, _ := LookupKind(KindSpend)
	assert.Equal(t, int64(60)+MaxOverdraw, spend.Quota(w))

	withdraw, _ := LookupKind(KindWithdraw)
	assert.Equal(t, int64(30), withdraw.Quota(w))

	refund, _ := LookupKind(KindRefund)
	assert.Equal(t, int64(20), refund.Quota(w))

	sponsor, _ := LookupKind(KindSponsor)
	assert.Equal(t, int64(60), sponsor.Quota(w))
}

func TestCheckParticipants(t *testing.T) {
	user := xid.New()
	other := xid.New()

	topup, _ := LookupKind(KindTopup)
	assert.NoError(t, topup.CheckPayer(KindTopup, SysID))
	assert.ErrorIs(t, topup.CheckPayer(KindTopup, user), errs.ErrInvalidParticipant)
	assert.NoError(t, topup.CheckPayee(KindTopup, user))
	assert.ErrorIs(t, topup.CheckPayee(KindTopup, SysID), errs.ErrInvalidParticipant)

	spend, _ := LookupKind(KindSpend)
	assert.NoError(t, spend.CheckPayee(KindSpend, SysID))
	assert.ErrorIs(t, spend.CheckSubPayee(KindSpend, user, SysID, other), errs.ErrInvalidParticipant)

	sponsor, _ := LookupKind(KindSponsor)
	assert.NoError(t, sponsor.CheckSubPayee(KindSponsor, user, other, xid.New()))
	assert.ErrorIs(t, sponsor.CheckSubPayee(KindSponsor, user, other, user), errs.ErrInvalidParticipant)
	assert.ErrorIs(t, sponsor.CheckSubPayee(KindSponsor, user, other, other), errs.ErrInvalidParticipant)
	assert.ErrorIs(t, sponsor.CheckSubPayee(KindSponsor, user, other, SysID), errs.ErrInvalidParticipant)
}
