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

const defaultPageSize = 20

// TransactionRepository implements the transaction log port using GORM
type TransactionRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewTransactionRepository creates a transaction repository
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

// Create inserts the transaction if it does not exist
func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) (bool, error) {
	m := model.TransactionFromEntity(txn)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, database.MapError(result.Error, "create transaction")
	}
	return result.RowsAffected > 0, nil
}

// Get retrieves a transaction by payer and id
func (r *TransactionRepository) Get(ctx context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	var m model.Transaction
	result := r.db.WithContext(ctx).
		Where("uid = ? AND id = ?", uid.String(), id.String()).
		First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get transaction")
	}
	return m.ToEntity()
}

// SetStatus moves the status from -> to via a conditional update
func (r *TransactionRepository) SetStatus(ctx context.Context, uid, id xid.ID, from, to int8) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("uid = ? AND id = ? AND status = ?", uid.String(), id.String(), from).
		Update("status", to)
	if result.Error != nil {
		return false, database.MapError(result.Error, "set transaction status")
	}
	return result.RowsAffected > 0, nil
}

// List returns a payer's transactions, newest first. The xid string encoding
// preserves byte order, so keyset pagination runs on the id column.
func (r *TransactionRepository) List(ctx context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Transaction, error) {
	q := r.db.WithContext(ctx).Where("uid = ?", uid.String())
	if opts.Kind != "" {
		q = q.Where("kind = ?", opts.Kind)
	}
	if opts.PageToken != nil {
		q = q.Where("id < ?", opts.PageToken.String())
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var rows []model.Transaction
	if err := q.Order("id DESC").Limit(size).Find(&rows).Error; err != nil {
		return nil, database.MapError(err, "list transactions")
	}
	return toTransactionEntities(rows)
}

// ListPending returns a payer's non-terminal transactions
func (r *TransactionRepository) ListPending(ctx context.Context, uid xid.ID) ([]entity.Transaction, error) {
	var rows []model.Transaction
	err := r.db.WithContext(ctx).
		Where("uid = ? AND status NOT IN ?", uid.String(), []int8{
			entity.StatusCommitted, entity.StatusCanceled,
		}).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "list pending transactions")
	}
	return toTransactionEntities(rows)
}

// ListNonTerminal returns transactions across all payers in the given
// statuses and older than before, oldest first
func (r *TransactionRepository) ListNonTerminal(ctx context.Context, statuses []int8, before xid.ID, limit int) ([]entity.Transaction, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	var rows []model.Transaction
	err := r.db.WithContext(ctx).
		Where("status IN ? AND id < ?", statuses, before.String()).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, database.MapError(err, "list stale transactions")
	}
	return toTransactionEntities(rows)
}

func toTransactionEntities(rows []model.Transaction) ([]entity.Transaction, error) {
	out := make([]entity.Transaction, 0, len(rows))
	for i := range rows {
		t, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

// PayeeIndexRepository implements the payee index port using GORM
type PayeeIndexRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewPayeeIndexRepository creates a payee index repository
func NewPayeeIndexRepository(db *gorm.DB, logger coreport.Logger) *PayeeIndexRepository {
	return &PayeeIndexRepository{db: db, logger: logger}
}

// Save inserts the index row if it does not exist
func (r *PayeeIndexRepository) Save(ctx context.Context, row *entity.PayeeTransaction) (bool, error) {
	m := model.PayeeTransactionFromEntity(row)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, database.MapError(result.Error, "save payee index")
	}
	return result.RowsAffected > 0, nil
}

// List returns a payee's transaction references, newest first
func (r *PayeeIndexRepository) List(ctx context.Context, payee xid.ID, opts persistence.ListOptions) ([]entity.PayeeTransaction, error) {
	q := r.db.WithContext(ctx).Where("payee = ?", payee.String())
	if opts.PageToken != nil {
		q = q.Where("txn < ?", opts.PageToken.String())
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var rows []model.PayeeTransaction
	if err := q.Order("txn DESC").Limit(size).Find(&rows).Error; err != nil {
		return nil, database.MapError(err, "list payee index")
	}
	out := make([]entity.PayeeTransaction, 0, len(rows))
	for i := range rows {
		p, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// CreditRepository implements the credit log port using GORM
type CreditRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewCreditRepository creates a credit repository
func NewCreditRepository(db *gorm.DB, logger coreport.Logger) *CreditRepository {
	return &CreditRepository{db: db, logger: logger}
}

// Create inserts the credit entry if it does not exist
func (r *CreditRepository) Create(ctx context.Context, credit *entity.Credit) (bool, error) {
	m := model.CreditFromEntity(credit)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return false, database.MapError(result.Error, "create credit entry")
	}
	return result.RowsAffected > 0, nil
}

// Get retrieves a credit entry
func (r *CreditRepository) Get(ctx context.Context, uid, txn xid.ID) (*entity.Credit, error) {
	var m model.Credit
	result := r.db.WithContext(ctx).
		Where("uid = ? AND txn = ?", uid.String(), txn.String()).
		First(&m)
	if result.Error != nil {
		return nil, database.MapError(result.Error, "get credit entry")
	}
	return m.ToEntity()
}

// List returns a user's credit entries, newest first
func (r *CreditRepository) List(ctx context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Credit, error) {
	q := r.db.WithContext(ctx).Where("uid = ?", uid.String())
	if opts.PageToken != nil {
		q = q.Where("txn < ?", opts.PageToken.String())
	}
	size := opts.PageSize
	if size <= 0 {
		size = defaultPageSize
	}

	var rows []model.Credit
	if err := q.Order("txn DESC").Limit(size).Find(&rows).Error; err != nil {
		return nil, database.MapError(err, "list credit entries")
	}
	out := make([]entity.Credit, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
