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

type txnKey struct {
	uid xid.ID
	id  xid.ID
}

// TransactionLog is the in-memory transaction record.
type TransactionLog struct {
	mu   sync.RWMutex
	txns map[txnKey]*entity.Transaction
}

// NewTransactionLog creates an empty in-memory transaction log.
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{txns: make(map[txnKey]*entity.Transaction)}
}

func cloneTxn(t *entity.Transaction) *entity.Transaction {
	c := *t
	if t.SubPayee != nil {
		sp := *t.SubPayee
		c.SubPayee = &sp
	}
	if t.Payload != nil {
		c.Payload = append([]byte(nil), t.Payload...)
	}
	return &c
}

func (l *TransactionLog) Create(_ context.Context, txn *entity.Transaction) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := txnKey{uid: txn.UID, id: txn.ID}
	if _, ok := l.txns[key]; ok {
		return false, nil
	}
	l.txns[key] = cloneTxn(txn)
	return true, nil
}

func (l *TransactionLog) Get(_ context.Context, uid, id xid.ID) (*entity.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.txns[txnKey{uid: uid, id: id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneTxn(t), nil
}

func (l *TransactionLog) SetStatus(_ context.Context, uid, id xid.ID, from, to int8) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.txns[txnKey{uid: uid, id: id}]
	if !ok {
		return false, errs.ErrNotFound
	}
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (l *TransactionLog) List(_ context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entity.Transaction, 0)
	for key, t := range l.txns {
		if key.uid != uid {
			continue
		}
		if opts.Kind != "" && t.Kind != opts.Kind {
			continue
		}
		if opts.PageToken != nil && t.ID.Compare(*opts.PageToken) >= 0 {
			continue
		}
		out = append(out, *cloneTxn(t))
	}
	sortTxnsDesc(out)
	return truncateTxns(out, opts.PageSize), nil
}

func (l *TransactionLog) ListPending(_ context.Context, uid xid.ID) ([]entity.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]entity.Transaction, 0)
	for key, t := range l.txns {
		if key.uid != uid || t.IsTerminal() {
			continue
		}
		out = append(out, *cloneTxn(t))
	}
	sortTxnsDesc(out)
	return out, nil
}

func (l *TransactionLog) ListNonTerminal(_ context.Context, statuses []int8, before xid.ID, limit int) ([]entity.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	wanted := make(map[int8]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	out := make([]entity.Transaction, 0)
	for _, t := range l.txns {
		if _, ok := wanted[t.Status]; !ok {
			continue
		}
		if t.ID.Compare(before) >= 0 {
			continue
		}
		out = append(out, *cloneTxn(t))
	}
	// oldest first so the reconciler drains the backlog in order
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return truncateTxns(out, limit), nil
}

func sortTxnsDesc(txns []entity.Transaction) {
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID.Compare(txns[j].ID) > 0 })
}

func truncateTxns(txns []entity.Transaction, limit int) []entity.Transaction {
	if limit > 0 && len(txns) > limit {
		return txns[:limit]
	}
	return txns
}

type payeeKey struct {
	payee xid.ID
	txn   xid.ID
}

// PayeeIndex is the in-memory payee-side transaction index.
type PayeeIndex struct {
	mu   sync.RWMutex
	rows map[payeeKey]entity.PayeeTransaction
}

// NewPayeeIndex creates an empty in-memory payee index.
func NewPayeeIndex() *PayeeIndex {
	return &PayeeIndex{rows: make(map[payeeKey]entity.PayeeTransaction)}
}

func (p *PayeeIndex) Save(_ context.Context, row *entity.PayeeTransaction) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := payeeKey{payee: row.Payee, txn: row.Txn}
	if _, ok := p.rows[key]; ok {
		return false, nil
	}
	p.rows[key] = *row
	return true, nil
}

func (p *PayeeIndex) List(_ context.Context, payee xid.ID, opts persistence.ListOptions) ([]entity.PayeeTransaction, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]entity.PayeeTransaction, 0)
	for key, row := range p.rows {
		if key.payee != payee {
			continue
		}
		if opts.PageToken != nil && row.Txn.Compare(*opts.PageToken) >= 0 {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Txn.Compare(out[j].Txn) > 0 })
	if opts.PageSize > 0 && len(out) > opts.PageSize {
		out = out[:opts.PageSize]
	}
	return out, nil
}

type creditKey struct {
	uid xid.ID
	txn xid.ID
}

// CreditLog is the in-memory credit audit trail.
type CreditLog struct {
	mu      sync.RWMutex
	credits map[creditKey]entity.Credit
}

// NewCreditLog creates an empty in-memory credit log.
func NewCreditLog() *CreditLog {
	return &CreditLog{credits: make(map[creditKey]entity.Credit)}
}

func (c *CreditLog) Create(_ context.Context, credit *entity.Credit) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := creditKey{uid: credit.UID, txn: credit.Txn}
	if _, ok := c.credits[key]; ok {
		return false, nil
	}
	c.credits[key] = *credit
	return true, nil
}

func (c *CreditLog) Get(_ context.Context, uid, txn xid.ID) (*entity.Credit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.credits[creditKey{uid: uid, txn: txn}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &entry, nil
}

func (c *CreditLog) List(_ context.Context, uid xid.ID, opts persistence.ListOptions) ([]entity.Credit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entity.Credit, 0)
	for key, entry := range c.credits {
		if key.uid != uid {
			continue
		}
		if opts.PageToken != nil && entry.Txn.Compare(*opts.PageToken) >= 0 {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Txn.Compare(out[j].Txn) > 0 })
	if opts.PageSize > 0 && len(out) > opts.PageSize {
		out = out[:opts.PageSize]
	}
	return out, nil
}
