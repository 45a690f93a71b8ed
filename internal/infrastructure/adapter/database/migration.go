package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/model"
)

// Migrate creates or updates the schema and seeds the system wallet row, so
// the first fee credit does not race the row's creation.
func Migrate(ctx context.Context, db *gorm.DB, log coreport.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&model.Wallet{},
		&model.Transaction{},
		&model.PayeeTransaction{},
		&model.Credit{},
		&model.Charge{},
		&model.Customer{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	sys := model.WalletFromEntity(entity.NewWallet(entity.SysID))
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sys)
	if result.Error != nil {
		return fmt.Errorf("seed system wallet: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Info("system wallet seeded", nil)
	}

	log.Info("database migration complete", nil)
	return nil
}
