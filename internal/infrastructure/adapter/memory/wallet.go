// Package memory provides in-process implementations of the persistence
// ports with the same conditional-write semantics as the SQL adapters. It
// backs the unit tests and the dev mode of the server; it is not durable.
package memory

import (
	"context"
	"sync"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// WalletRepo keeps wallet rows in a map guarded by one mutex. The mutex
// makes each operation atomic, which is exactly the per-row linearizable
// compare-and-set the port demands.
type WalletRepo struct {
	mu      sync.RWMutex
	wallets map[xid.ID]*entity.Wallet
}

// NewWalletRepo creates an empty in-memory wallet repository.
func NewWalletRepo() *WalletRepo {
	return &WalletRepo{wallets: make(map[xid.ID]*entity.Wallet)}
}

func (r *WalletRepo) Get(_ context.Context, uid xid.ID) (*entity.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.wallets[uid]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return w.Clone(), nil
}

func (r *WalletRepo) Create(_ context.Context, wallet *entity.Wallet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.wallets[wallet.UID]; ok {
		return false, nil
	}
	r.wallets[wallet.UID] = wallet.Clone()
	return true, nil
}

func (r *WalletRepo) UpdateBalance(_ context.Context, wallet *entity.Wallet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.wallets[wallet.UID]
	if !ok {
		return false, errs.ErrNotFound
	}
	if stored.Sequence != wallet.Sequence-1 {
		return false, nil
	}

	next := wallet.Clone()
	next.Credits = stored.Credits
	r.wallets[wallet.UID] = next
	return true, nil
}

func (r *WalletRepo) UpdateCredits(_ context.Context, uid xid.ID, expected, credits int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.wallets[uid]
	if !ok {
		return false, errs.ErrNotFound
	}
	if stored.Credits != expected {
		return false, nil
	}
	stored.Credits = credits
	return true, nil
}
