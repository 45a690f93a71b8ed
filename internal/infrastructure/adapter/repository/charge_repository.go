package repository

import (
	"context"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/database"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/model"
)

// ChargeRepository implements the charge store port using GORM
type ChargeRepository struct {
	db           *gorm.DB
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewChargeRepository creates a charge repository
func NewChargeRepository(db *gorm.DB, tp coreport.TimeProvider, logger coreport.Logger) *ChargeRepository {
	return &ChargeRepository{db: db, timeProvider: tp, logger: logger}
}

// Create inserts the charge if it does not exist
func (r *ChargeRepository) Create(ctx context.Context, charge *entity.Charge) (bool, error) {
	m := model.ChargeFromEntity(charge)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, database.MapError(result.Error, "create charge")
	}
	return result.RowsAffected > 0, nil
}

// Get retrieves a charge
func (r *ChargeRepository) Get(ctx context.Context, uid, id xid.ID) (*entity.Charge, error) {
	var m model.Charge
	result := r.db.WithContext(ctx).
		Where("uid = ? AND id = ?", uid.String(), id.String()).
		First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get charge")
	}
	return m.ToEntity()
}

// GetByProviderChargeID resolves a provider callback to its charge
func (r *ChargeRepository) GetByProviderChargeID(ctx context.Context, provider, chargeID string) (*entity.Charge, error) {
	if chargeID == "" {
		return nil, database.MapError(gorm.ErrRecordNotFound, "get charge by provider id")
	}
	var m model.Charge
	result := r.db.WithContext(ctx).
		Where("provider = ? AND charge_id = ?", provider, chargeID).
		First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get charge by provider id")
	}
	return m.ToEntity()
}

// SetStatus moves the status from -> to via a conditional update
func (r *ChargeRepository) SetStatus(ctx context.Context, uid, id xid.ID, from, to int8) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Charge{}).
		Where("uid = ? AND id = ? AND status = ?", uid.String(), id.String(), from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": r.timeProvider.Now().UnixMilli(),
		})
	if result.Error != nil {
		return false, database.MapError(result.Error, "set charge status")
	}
	return result.RowsAffected > 0, nil
}

// Update applies field changes conditioned on the stored status
func (r *ChargeRepository) Update(ctx context.Context, uid, id xid.ID, status int8, update persistence.ChargeUpdate) (bool, error) {
	fields := map[string]any{
		"updated_at": r.timeProvider.Now().UnixMilli(),
	}
	if update.Amount != nil {
		fields["amount"] = *update.Amount
	}
	if update.AmountRefunded != nil {
		fields["amount_refunded"] = *update.AmountRefunded
	}
	if update.ChargeID != nil {
		fields["charge_id"] = *update.ChargeID
	}
	if update.ChargePayload != nil {
		fields["charge_payload"] = update.ChargePayload
	}
	if update.Txn != nil {
		fields["txn"] = update.Txn.String()
	}
	if update.TxnRefunded != nil {
		fields["txn_refunded"] = update.TxnRefunded.String()
	}
	if update.FailureCode != nil {
		fields["failure_code"] = *update.FailureCode
	}
	if update.FailureMsg != nil {
		fields["failure_msg"] = *update.FailureMsg
	}

	result := r.db.WithContext(ctx).
		Model(&model.Charge{}).
		Where("uid = ? AND id = ? AND status = ?", uid.String(), id.String(), status).
		Updates(fields)
	if result.Error != nil {
		return false, database.MapError(result.Error, "update charge")
	}
	return result.RowsAffected > 0, nil
}

// List returns a user's charges, newest first, optionally filtered by status
func (r *ChargeRepository) List(ctx context.Context, uid xid.ID, status *int8, opts persistence.ListOptions) ([]entity.Charge, error) {
	q := r.db.WithContext(ctx).Where("uid = ?", uid.String())
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if opts.PageToken != nil {
		q = q.Where("id < ?", opts.PageToken.String())
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var rows []model.Charge
	if err := q.Order("id DESC").Limit(size).Find(&rows).Error; err != nil {
		return nil, database.MapError(err, "list charges")
	}
	out := make([]entity.Charge, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// CustomerRepository implements the customer store port using GORM
type CustomerRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewCustomerRepository creates a customer repository
func NewCustomerRepository(db *gorm.DB, logger coreport.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger}
}

// Get retrieves a provider identity mapping
func (r *CustomerRepository) Get(ctx context.Context, uid xid.ID, provider string) (*entity.Customer, error) {
	var m model.Customer
	result := r.db.WithContext(ctx).
		Where("uid = ? AND provider = ?", uid.String(), provider).
		First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get customer")
	}
	return m.ToEntity()
}

// Save upserts the mapping
func (r *CustomerRepository) Save(ctx context.Context, customer *entity.Customer) error {
	m, err := model.CustomerFromEntity(customer)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uid"}, {Name: "provider"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"updated_at", "customer", "payload", "customers",
			}),
		}).
		Create(m)
	if result.Error != nil {
		return database.MapError(result.Error, "save customer")
	}
	return nil
}
