package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
)

type chargeKey struct {
	uid xid.ID
	id  xid.ID
}

// ChargeStore is the in-memory charge record.
type ChargeStore struct {
	mu      sync.RWMutex
	charges map[chargeKey]*entity.Charge
}

// NewChargeStore creates an empty in-memory charge store.
func NewChargeStore() *ChargeStore {
	return &ChargeStore{charges: make(map[chargeKey]*entity.Charge)}
}

func cloneCharge(c *entity.Charge) *entity.Charge {
	cp := *c
	if c.ChargePayload != nil {
		cp.ChargePayload = append([]byte(nil), c.ChargePayload...)
	}
	if c.Txn != nil {
		t := *c.Txn
		cp.Txn = &t
	}
	if c.TxnRefunded != nil {
		t := *c.TxnRefunded
		cp.TxnRefunded = &t
	}
	return &cp
}

func (s *ChargeStore) Create(_ context.Context, charge *entity.Charge) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := chargeKey{uid: charge.UID, id: charge.ID}
	if _, ok := s.charges[key]; ok {
		return false, nil
	}
	s.charges[key] = cloneCharge(charge)
	return true, nil
}

func (s *ChargeStore) Get(_ context.Context, uid, id xid.ID) (*entity.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.charges[chargeKey{uid: uid, id: id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneCharge(c), nil
}

func (s *ChargeStore) GetByProviderChargeID(_ context.Context, provider, chargeID string) (*entity.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.charges {
		if c.Provider == provider && c.ChargeID == chargeID && chargeID != "" {
			return cloneCharge(c), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *ChargeStore) SetStatus(_ context.Context, uid, id xid.ID, from, to int8) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charges[chargeKey{uid: uid, id: id}]
	if !ok {
		return false, errs.ErrNotFound
	}
	if c.Status != from {
		return false, nil
	}
	c.Status = to
	return true, nil
}

func (s *ChargeStore) Update(_ context.Context, uid, id xid.ID, status int8, update persistence.ChargeUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.charges[chargeKey{uid: uid, id: id}]
	if !ok {
		return false, errs.ErrNotFound
	}
	if c.Status != status {
		return false, nil
	}

	if update.Amount != nil {
		c.Amount = *update.Amount
	}
	if update.AmountRefunded != nil {
		c.AmountRefunded = *update.AmountRefunded
	}
	if update.ChargeID != nil {
		c.ChargeID = *update.ChargeID
	}
	if update.ChargePayload != nil {
		c.ChargePayload = append([]byte(nil), update.ChargePayload...)
	}
	if update.Txn != nil {
		t := *update.Txn
		c.Txn = &t
	}
	if update.TxnRefunded != nil {
		t := *update.TxnRefunded
		c.TxnRefunded = &t
	}
	if update.FailureCode != nil {
		c.FailureCode = *update.FailureCode
	}
	if update.FailureMsg != nil {
		c.FailureMsg = *update.FailureMsg
	}
	return true, nil
}

func (s *ChargeStore) List(_ context.Context, uid xid.ID, status *int8, opts persistence.ListOptions) ([]entity.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.Charge, 0)
	for key, c := range s.charges {
		if key.uid != uid {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		if opts.PageToken != nil && c.ID.Compare(*opts.PageToken) >= 0 {
			continue
		}
		out = append(out, *cloneCharge(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) > 0 })
	if opts.PageSize > 0 && len(out) > opts.PageSize {
		out = out[:opts.PageSize]
	}
	return out, nil
}

type customerKey struct {
	uid      xid.ID
	provider string
}

// CustomerStore is the in-memory provider identity mapping.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[customerKey]*entity.Customer
}

// NewCustomerStore creates an empty in-memory customer store.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{customers: make(map[customerKey]*entity.Customer)}
}

func cloneCustomer(c *entity.Customer) *entity.Customer {
	cp := *c
	if c.Payload != nil {
		cp.Payload = append([]byte(nil), c.Payload...)
	}
	if c.Customers != nil {
		cp.Customers = make(map[string]struct{}, len(c.Customers))
		for k := range c.Customers {
			cp.Customers[k] = struct{}{}
		}
	}
	return &cp
}

func (s *CustomerStore) Get(_ context.Context, uid xid.ID, provider string) (*entity.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[customerKey{uid: uid, provider: provider}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (s *CustomerStore) Save(_ context.Context, customer *entity.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := customerKey{uid: customer.UID, provider: customer.Provider}
	stored, ok := s.customers[key]
	if !ok {
		s.customers[key] = cloneCustomer(customer)
		return nil
	}

	merged := cloneCustomer(customer)
	merged.CreatedAt = stored.CreatedAt
	for k := range stored.Customers {
		if merged.Customers == nil {
			merged.Customers = make(map[string]struct{})
		}
		merged.Customers[k] = struct{}{}
	}
	s.customers[key] = merged
	return nil
}
