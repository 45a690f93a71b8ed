// Package repository implements the persistence ports on PostgreSQL via
// GORM. Every compare-and-set is a single conditional UPDATE judged by
// RowsAffected; none of the repositories open multi-statement transactions.
package repository

import (
	"context"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/database"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/model"
)

// WalletRepository implements the wallet port using GORM
type WalletRepository struct {
	db           *gorm.DB
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewWalletRepository creates a wallet repository
func NewWalletRepository(db *gorm.DB, tp coreport.TimeProvider, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{db: db, timeProvider: tp, logger: logger}
}

// Get retrieves a wallet row by account id
func (r *WalletRepository) Get(ctx context.Context, uid xid.ID) (*entity.Wallet, error) {
	var m model.Wallet
	result := r.db.WithContext(ctx).Where("uid = ?", uid.String()).First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get wallet")
	}
	return m.ToEntity()
}

// Create inserts the wallet row if it does not exist
func (r *WalletRepository) Create(ctx context.Context, wallet *entity.Wallet) (bool, error) {
	m := model.WalletFromEntity(wallet)
	m.UpdatedAt = r.timeProvider.Now()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, database.MapError(result.Error, "create wallet")
	}
	return result.RowsAffected > 0, nil
}

// UpdateBalance writes the wallet's next state, conditioned on the stored
// sequence being exactly one behind. A zero RowsAffected means a concurrent
// writer advanced the row first.
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entity.Wallet) (bool, error) {
	m := model.WalletFromEntity(wallet)
	result := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND sequence = ?", m.UID, wallet.Sequence-1).
		Updates(map[string]any{
			"sequence":   m.Sequence,
			"award":      m.Award,
			"topup":      m.Topup,
			"income":     m.Income,
			"txn":        m.Txn,
			"checksum":   m.Checksum,
			"updated_at": r.timeProvider.Now(),
		})
	if result.Error != nil {
		return false, database.MapError(result.Error, "update wallet balance")
	}
	return result.RowsAffected > 0, nil
}

// UpdateCredits sets the credits counter conditioned on its current value.
// The sequence and checksum are untouched.
func (r *WalletRepository) UpdateCredits(ctx context.Context, uid xid.ID, expected, credits int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("uid = ? AND credits = ?", uid.String(), expected).
		Updates(map[string]any{
			"credits":    credits,
			"updated_at": r.timeProvider.Now(),
		})
	if result.Error != nil {
		return false, database.MapError(result.Error, "update wallet credits")
	}
	return result.RowsAffected > 0, nil
}
