package entity

import (
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "preparing", StatusName(StatusPreparing))
	assert.Equal(t, "committed", StatusName(StatusCommitted))
	assert.Equal(t, "canceled", StatusName(StatusCanceled))
	assert.Equal(t, "unknown", StatusName(42))

	assert.True(t, IsTerminalStatus(StatusCommitted))
	assert.True(t, IsTerminalStatus(StatusCanceled))
	assert.False(t, IsTerminalStatus(StatusCommitting))
	assert.False(t, IsTerminalStatus(StatusCanceling))
}

func TestTransactionCredits(t *testing.T) {
	payer := xid.New()
	payee := xid.New()
	subPayee := xid.New()

	txn := &Transaction{
		UID:       payer,
		ID:        xid.New(),
		Payee:     payee,
		SubPayee:  &subPayee,
		Status:    StatusCommitted,
		Kind:      KindSponsor,
		Amount:    100,
		SysFee:    30,
		SubShares: 35,
	}

	entries := txn.Credits()
	require.Len(t, entries, 3)
	assert.Equal(t, Credit{UID: payer, Txn: txn.ID, Kind: CreditKindPayout, Amount: 100}, entries[0])
	assert.Equal(t, Credit{UID: payee, Txn: txn.ID, Kind: CreditKindIncome, Amount: 35}, entries[1])
	assert.Equal(t, Credit{UID: subPayee, Txn: txn.ID, Kind: CreditKindIncome, Amount: 35}, entries[2])
}

func TestTransactionCreditsSpend(t *testing.T) {
	payer := xid.New()
	txn := &Transaction{
		UID:    payer,
		ID:     xid.New(),
		Payee:  SysID,
		Status: StatusCommitted,
		Kind:   KindSpend,
		Amount: 50,
	}

	entries := txn.Credits()
	require.Len(t, entries, 1)
	assert.Equal(t, CreditKindPayout, entries[0].Kind)
	assert.Equal(t, int64(50), entries[0].Amount)
}

func TestTransactionCreditsNone(t *testing.T) {
	// not committed
	txn := &Transaction{UID: xid.New(), Status: StatusPrepared, Kind: KindSponsor, Amount: 100}
	assert.Empty(t, txn.Credits())

	// system payer
	txn = &Transaction{UID: SysID, Status: StatusCommitted, Kind: KindTopup, Amount: 100}
	assert.Empty(t, txn.Credits())

	// non-earning kind
	txn = &Transaction{UID: xid.New(), Status: StatusCommitted, Kind: KindWithdraw, Amount: 100}
	assert.Empty(t, txn.Credits())
}

func TestPayeeNet(t *testing.T) {
	txn := &Transaction{Amount: 100, SysFee: 30, SubShares: 35}
	assert.Equal(t, int64(35), txn.PayeeNet())
}

func TestWalletClone(t *testing.T) {
	w := &Wallet{UID: xid.New(), Sequence: 3, Award: 1, Checksum: []byte{1, 2, 3}}
	c := w.Clone()
	c.Checksum[0] = 9
	c.Award = 7

	assert.Equal(t, byte(1), w.Checksum[0])
	assert.Equal(t, int64(1), w.Award)
}
