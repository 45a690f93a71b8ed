package model

import (
	"encoding/json"
	"fmt"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// Charge represents the database row for one fiat payment intent
type Charge struct {
	UID            string  `gorm:"primaryKey;size:20"`
	ID             string  `gorm:"primaryKey;size:20"`
	Status         int8    `gorm:"not null;default:0"`
	UpdatedAt      int64   `gorm:"not null"`
	ExpireAt       int64   `gorm:"not null"`
	Quantity       int64   `gorm:"not null"`
	Currency       string  `gorm:"size:3;not null"`
	Amount         int64   `gorm:"not null"`
	AmountRefunded int64   `gorm:"not null;default:0"`
	Provider       string  `gorm:"size:32;not null;index:idx_charge_provider,priority:1"`
	ChargeID       string  `gorm:"size:128;not null;default:'';index:idx_charge_provider,priority:2"`
	ChargePayload  []byte
	Txn            *string `gorm:"size:20"`
	TxnRefunded    *string `gorm:"size:20"`
	FailureCode    string  `gorm:"size:64"`
	FailureMsg     string  `gorm:"size:512"`
}

// TableName specifies the table name for Charge
func (Charge) TableName() string {
	return "charges"
}

// ToEntity converts the row to a domain charge
func (m *Charge) ToEntity() (*entity.Charge, error) {
	uid, err := parseID(m.UID)
	if err != nil {
		return nil, err
	}
	id, err := parseID(m.ID)
	if err != nil {
		return nil, err
	}
	txn, err := parseIDPtr(m.Txn)
	if err != nil {
		return nil, err
	}
	txnRefunded, err := parseIDPtr(m.TxnRefunded)
	if err != nil {
		return nil, err
	}
	c := &entity.Charge{
		UID:            uid,
		ID:             id,
		Status:         m.Status,
		UpdatedAt:      m.UpdatedAt,
		ExpireAt:       m.ExpireAt,
		Quantity:       m.Quantity,
		Currency:       m.Currency,
		Amount:         m.Amount,
		AmountRefunded: m.AmountRefunded,
		Provider:       m.Provider,
		ChargeID:       m.ChargeID,
		Txn:            txn,
		TxnRefunded:    txnRefunded,
		FailureCode:    m.FailureCode,
		FailureMsg:     m.FailureMsg,
	}
	if m.ChargePayload != nil {
		c.ChargePayload = append([]byte(nil), m.ChargePayload...)
	}
	return c, nil
}

// ChargeFromEntity converts a domain charge to its row
func ChargeFromEntity(c *entity.Charge) *Charge {
	m := &Charge{
		UID:            c.UID.String(),
		ID:             c.ID.String(),
		Status:         c.Status,
		UpdatedAt:      c.UpdatedAt,
		ExpireAt:       c.ExpireAt,
		Quantity:       c.Quantity,
		Currency:       c.Currency,
		Amount:         c.Amount,
		AmountRefunded: c.AmountRefunded,
		Provider:       c.Provider,
		ChargeID:       c.ChargeID,
		Txn:            idPtrString(c.Txn),
		TxnRefunded:    idPtrString(c.TxnRefunded),
		FailureCode:    c.FailureCode,
		FailureMsg:     c.FailureMsg,
	}
	if c.ChargePayload != nil {
		m.ChargePayload = append([]byte(nil), c.ChargePayload...)
	}
	return m
}

// Customer represents the database row for a provider identity mapping
type Customer struct {
	UID       string `gorm:"primaryKey;size:20"`
	Provider  string `gorm:"primaryKey;size:32"`
	CreatedAt int64  `gorm:"not null"`
	UpdatedAt int64  `gorm:"not null"`
	Customer  string `gorm:"size:128;not null;default:''"`
	Payload   []byte
	Customers []byte // JSON array of historical customer ids
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// ToEntity converts the row to a domain customer
func (m *Customer) ToEntity() (*entity.Customer, error) {
	uid, err := parseID(m.UID)
	if err != nil {
		return nil, err
	}
	c := &entity.Customer{
		UID:       uid,
		Provider:  m.Provider,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Customer:  m.Customer,
	}
	if m.Payload != nil {
		c.Payload = append([]byte(nil), m.Payload...)
	}
	if len(m.Customers) > 0 {
		var ids []string
		if err := json.Unmarshal(m.Customers, &ids); err != nil {
			return nil, fmt.Errorf("%w: malformed customer set: %s", errs.ErrInternalServer, err)
		}
		c.Customers = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			c.Customers[id] = struct{}{}
		}
	}
	return c, nil
}

// CustomerFromEntity converts a domain customer to its row
func CustomerFromEntity(c *entity.Customer) (*Customer, error) {
	m := &Customer{
		UID:       c.UID.String(),
		Provider:  c.Provider,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Customer:  c.Customer,
	}
	if c.Payload != nil {
		m.Payload = append([]byte(nil), c.Payload...)
	}
	if len(c.Customers) > 0 {
		ids := make([]string, 0, len(c.Customers))
		for id := range c.Customers {
			ids = append(ids, id)
		}
		raw, err := json.Marshal(ids)
		if err != nil {
			return nil, fmt.Errorf("%w: encode customer set: %s", errs.ErrInternalServer, err)
		}
		m.Customers = raw
	}
	return m, nil
}
