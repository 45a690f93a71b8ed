// Package model holds the GORM row types and their entity conversions. Ids
// are stored in the xid string encoding, which sorts the same as the raw
// bytes, so id-range scans and newest-first pagination work on the string
// column directly.
package model

import (
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// Wallet represents the database row for one account's balances
type Wallet struct {
	UID       string    `gorm:"primaryKey;size:20"`
	Sequence  int64     `gorm:"not null"`
	Award     int64     `gorm:"not null;default:0"`
	Topup     int64     `gorm:"not null;default:0"`
	Income    int64     `gorm:"not null;default:0"`
	Credits   int64     `gorm:"not null;default:0"`
	Txn       string    `gorm:"size:20;not null;default:''"`
	Checksum  []byte    `gorm:"size:8"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Wallet
func (Wallet) TableName() string {
	return "wallets"
}

// ToEntity converts the row to a domain wallet
func (m *Wallet) ToEntity() (*entity.Wallet, error) {
	uid, err := parseID(m.UID)
	if err != nil {
		return nil, err
	}
	txn, err := parseOptionalID(m.Txn)
	if err != nil {
		return nil, err
	}
	w := &entity.Wallet{
		UID:      uid,
		Sequence: m.Sequence,
		Award:    m.Award,
		Topup:    m.Topup,
		Income:   m.Income,
		Credits:  m.Credits,
		Txn:      txn,
	}
	if m.Checksum != nil {
		w.Checksum = append([]byte(nil), m.Checksum...)
	}
	return w, nil
}

// WalletFromEntity converts a domain wallet to its row
func WalletFromEntity(w *entity.Wallet) *Wallet {
	m := &Wallet{
		UID:      w.UID.String(),
		Sequence: w.Sequence,
		Award:    w.Award,
		Topup:    w.Topup,
		Income:   w.Income,
		Credits:  w.Credits,
	}
	if w.Txn != (xid.ID{}) {
		m.Txn = w.Txn.String()
	}
	if w.Checksum != nil {
		m.Checksum = append([]byte(nil), w.Checksum...)
	}
	return m
}

// parseID decodes a stored xid string.
func parseID(s string) (xid.ID, error) {
	id, err := xid.FromString(s)
	if err != nil {
		return xid.ID{}, fmt.Errorf("%w: malformed id %q: %s", errs.ErrInternalServer, s, err)
	}
	return id, nil
}

// parseOptionalID decodes a stored xid string, treating empty as the zero id.
func parseOptionalID(s string) (xid.ID, error) {
	if s == "" {
		return xid.ID{}, nil
	}
	return parseID(s)
}

// parseIDPtr decodes a nullable stored xid string.
func parseIDPtr(s *string) (*xid.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := parseID(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// idPtrString encodes a nullable id for storage.
func idPtrString(id *xid.ID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
