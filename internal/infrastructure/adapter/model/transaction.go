package model

import (
	"github.com/yiwen-ai/walletbase/internal/domain/entity"
)

// Transaction represents the database row for one transfer attempt
type Transaction struct {
	UID         string  `gorm:"primaryKey;size:20"`
	ID          string  `gorm:"primaryKey;size:20;index:idx_txn_status,priority:2"`
	Sequence    int64   `gorm:"not null"`
	Payee       string  `gorm:"size:20;not null"`
	SubPayee    *string `gorm:"size:20"`
	Status      int8    `gorm:"not null;default:0;index:idx_txn_status,priority:1"`
	Kind        string  `gorm:"size:16;not null"`
	Amount      int64   `gorm:"not null"`
	SysFee      int64   `gorm:"not null;default:0"`
	SubShares   int64   `gorm:"not null;default:0"`
	Description string  `gorm:"size:512"`
	Payload     []byte
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// ToEntity converts the row to a domain transaction
func (m *Transaction) ToEntity() (*entity.Transaction, error) {
	uid, err := parseID(m.UID)
	if err != nil {
		return nil, err
	}
	id, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	payee, err := parseOptionalID(m.Payee)
	if err != nil {
		return nil, err
	}
	subPayee, err := parseIDPtr(m.SubPayee)
	if err != nil {
		return nil, err
	}
	t := &entity.Transaction{
		UID:         uid,
		ID:          id,
		Sequence:    m.Sequence,
		Payee:       payee,
		SubPayee:    subPayee,
		Status:      m.Status,
		Kind:        m.Kind,
		Amount:      m.Amount,
		SysFee:      m.SysFee,
		SubShares:   m.SubShares,
		Description: m.Description,
	}
	if m.Payload != nil {
		t.Payload = append([]byte(nil), m.Payload...)
	}
	return t, nil
}

// TransactionFromEntity converts a domain transaction to its row
func TransactionFromEntity(t *entity.Transaction) *Transaction {
	m := &Transaction{
		UID:         t.UID.String(),
		ID:          t.ID.String(),
		Sequence:    t.Sequence,
		Payee:       t.Payee.String(),
		SubPayee:    idPtrString(t.SubPayee),
		Status:      t.Status,
		Kind:        t.Kind,
		Amount:      t.Amount,
		SysFee:      t.SysFee,
		SubShares:   t.SubShares,
		Description: t.Description,
	}
	if t.Payload != nil {
		m.Payload = append([]byte(nil), t.Payload...)
	}
	return m
}

// PayeeTransaction represents the payee-side index row
type PayeeTransaction struct {
	Payee string `gorm:"primaryKey;size:20"`
	Txn   string `gorm:"primaryKey;size:20"`
	UID   string `gorm:"size:20;not null"`
}

// TableName specifies the table name for PayeeTransaction
func (PayeeTransaction) TableName() string {
	return "payee_transactions"
}

// ToEntity converts the row to a domain payee index entry
func (m *PayeeTransaction) ToEntity() (*entity.PayeeTransaction, error) {
	payee, err := parseOptionalID(m.Payee)
	if err != nil {
		return nil, err
	}
	txn, err := parseID(m.Txn)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalID(m.UID)
	if err != nil {
		return nil, err
	}
	return &entity.PayeeTransaction{Payee: payee, Txn: txn, UID: uid}, nil
}

// PayeeTransactionFromEntity converts a domain payee index entry to its row
func PayeeTransactionFromEntity(p *entity.PayeeTransaction) *PayeeTransaction {
	return &PayeeTransaction{
		Payee: p.Payee.String(),
		Txn:   p.Txn.String(),
		UID:   p.UID.String(),
	}
}

// Credit represents one credit-score audit row
type Credit struct {
	UID         string `gorm:"primaryKey;size:20"`
	Txn         string `gorm:"primaryKey;size:20"`
	Kind        string `gorm:"size:16;not null"`
	Amount      int64  `gorm:"not null"`
	Description string `gorm:"size:512"`
}

// TableName specifies the table name for Credit
func (Credit) TableName() string {
	return "credits"
}

// ToEntity converts the row to a domain credit entry
func (m *Credit) ToEntity() (*entity.Credit, error) {
	uid, err := parseID(m.UID)
	if err != nil {
		return nil, err
	}
	txn, err := parseID(m.Txn)
	if err != nil {
		return nil, err
	}
	return &entity.Credit{
		UID:         uid,
		Txn:         txn,
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: m.Description,
	}, nil
}

// CreditFromEntity converts a domain credit entry to its row
func CreditFromEntity(c *entity.Credit) *Credit {
	return &Credit{
		UID:         c.UID.String(),
		Txn:         c.Txn.String(),
		Kind:        c.Kind,
		Amount:      c.Amount,
		Description: c.Description,
	}
}
