// Package credit maintains the append-only credit-score trail and mirrors
// its sum into the wallet's credits field.
package credit

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
)

// Service writes credit entries and keeps Wallet.Credits in step. The log is
// the source of truth; the wallet field is a derived counter.
type Service struct {
	wallets *wallet.Store
	log     persistence.CreditLog
	logger  coreport.Logger
}

// NewService creates a credit service.
func NewService(wallets *wallet.Store, log persistence.CreditLog, logger coreport.Logger) *Service {
	return &Service{wallets: wallets, log: log, logger: logger}
}

// Save records one credit entry and bumps the wallet counter. The (uid, txn)
// key makes it idempotent: a replayed entry neither duplicates the log row
// nor double-counts. System-account entries are dropped, and a wallet whose
// credit score was never initialized accrues nothing until an award entry
// seeds it.
func (s *Service) Save(ctx context.Context, c *entity.Credit) error {
	if c.UID == entity.SysID {
		return nil
	}
	if !entity.ValidCreditKind(c.Kind) {
		return fmt.Errorf("%w: credit kind %q", errs.ErrInvalidKind, c.Kind)
	}

	w, err := s.wallets.Get(ctx, c.UID)
	if err != nil {
		return err
	}
	if w.Credits == 0 && c.Kind != entity.CreditKindAward {
		return nil
	}

	applied, err := s.log.Create(ctx, c)
	if err != nil {
		return fmt.Errorf("credit entry (%s, %s): %w", c.UID, c.Txn, err)
	}
	if !applied {
		return nil
	}

	if err := s.wallets.AddCredits(ctx, c.UID, c.Amount); err != nil {
		// the log row exists, so retrying the caller re-enters Save and
		// stops at the Create no-op; log loudly instead of unwinding
		s.logger.Error("credit counter update failed", map[string]any{
			"uid":    c.UID.String(),
			"txn":    c.Txn.String(),
			"amount": c.Amount,
			"error":  err.Error(),
		})
		return err
	}
	return nil
}

// SaveAll records entries in order, stopping at the first error.
func (s *Service) SaveAll(ctx context.Context, entries []entity.Credit) error {
	for i := range entries {
		if err := s.Save(ctx, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Award seeds or grows a user's credit score directly, outside any value
// transfer. It is the only path that initializes a zero score.
func (s *Service) Award(ctx context.Context, uid, txn xid.ID, amount int64, description string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit award %d", errs.ErrInvalidAmount, amount)
	}
	return s.Save(ctx, &entity.Credit{
		UID:         uid,
		Txn:         txn,
		Kind:        entity.CreditKindAward,
		Amount:      amount,
		Description: description,
	})
}

// List returns a user's credit entries, newest first.
func (s *Service) List(ctx context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Credit, error) {
	return s.log.List(ctx, uid, opts)
}
