package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
)

// RetryConfig bounds the optimistic-concurrency retry loop.
type RetryConfig struct {
	MaxRetries    int
	RetryInterval time.Duration
	MaxInterval   time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    5,
		RetryInterval: 20 * time.Millisecond,
		MaxInterval:   500 * time.Millisecond,
	}
}

// Mutator computes a wallet's next balance state in place. It must be pure in
// everything except the wallet: the store may call it several times, once per
// optimistic retry.
type Mutator func(w *entity.Wallet) error

// Store is the serialization point for all balance mutations. Every write
// goes through a conditional update on the wallet's sequence; every read
// re-verifies the keyed checksum. Each wallet row is an independent
// optimistic-concurrency unit, so the store holds no locks of its own.
type Store struct {
	repo    persistence.WalletRepository
	signer  *Signer
	logger  coreport.Logger
	tp      coreport.TimeProvider
	retry   RetryConfig
	metrics coreport.Metrics
}

// NewStore creates a wallet store over the conditional-write repository.
func NewStore(
	repo persistence.WalletRepository,
	signer *Signer,
	tp coreport.TimeProvider,
	logger coreport.Logger,
) *Store {
	return &Store{
		repo:    repo,
		signer:  signer,
		logger:  logger,
		tp:      tp,
		retry:   DefaultRetryConfig(),
		metrics: coreport.NopMetrics(),
	}
}

// WithRetry overrides the retry configuration.
func (s *Store) WithRetry(cfg RetryConfig) *Store {
	s.retry = cfg
	return s
}

// WithMetrics attaches operational counters.
func (s *Store) WithMetrics(m coreport.Metrics) *Store {
	s.metrics = m
	return s
}

// Get returns a verified wallet row. Unknown user accounts fail with
// ErrNotFound; the system account always exists implicitly and reads as a
// zero wallet before its first mutation.
func (s *Store) Get(ctx context.Context, uid xid.ID) (*entity.Wallet, error) {
	w, err := s.repo.Get(ctx, uid)
	if err != nil {
		if errs.IsNotFoundError(err) && uid == entity.SysID {
			return entity.NewWallet(uid), nil
		}
		return nil, err
	}
	if err := s.Verify(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Verify recomputes the wallet checksum and reports a ChecksumMismatch on
// any deviation. It never repairs the row.
func (s *Store) Verify(w *entity.Wallet) error {
	if err := s.signer.Verify(w); err != nil {
		s.metrics.ChecksumMismatch()
		s.logger.Error("wallet checksum mismatch", map[string]any{
			"uid":      w.UID.String(),
			"sequence": w.Sequence,
		})
		return err
	}
	return nil
}

// ApplyDelta performs exactly one conditional update: it succeeds only if the
// stored sequence still equals expectedSequence, then increments the
// sequence, applies the delta, tags the row with txnID and reseals the
// checksum. If the row's txn already equals txnID the call is a no-op
// success: a retried delivery of the same transaction must not double-apply.
func (s *Store) ApplyDelta(
	ctx context.Context,
	uid xid.ID,
	expectedSequence int64,
	delta entity.WalletDelta,
	txnID xid.ID,
) (*entity.Wallet, error) {
	w, err := s.getOrCreate(ctx, uid)
	if err != nil {
		return nil, err
	}
	if w.Txn == txnID {
		return w, nil
	}
	if w.Sequence != expectedSequence {
		return nil, &errs.ConflictError{UID: uid, Txn: txnID, Attempts: 1}
	}

	next := w.Clone()
	delta.Apply(next)
	next.Sequence++
	next.Txn = txnID
	next.Checksum = s.signer.Tag(next)

	applied, err := s.repo.UpdateBalance(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("wallet %s conditional update: %w", uid, err)
	}
	if !applied {
		s.metrics.SequenceConflict()
		return nil, &errs.ConflictError{UID: uid, Txn: txnID, Attempts: 1}
	}
	return next, nil
}

// Apply drives a mutator to acceptance with bounded retries: read, verify,
// short-circuit if the transaction was already applied, mutate, seal, CAS.
// On a lost race it backs off exponentially and re-reads; after the retry
// budget it surfaces SequenceConflict. The wallet row is created on first
// credit.
func (s *Store) Apply(ctx context.Context, uid, txnID xid.ID, mutate Mutator) (*entity.Wallet, error) {
	var attempt int
	for attempt = 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			s.tp.Sleep(s.backoff(attempt))
		}

		w, err := s.getOrCreate(ctx, uid)
		if err != nil {
			return nil, err
		}
		if err := s.Verify(w); err != nil {
			return nil, err
		}
		if w.Txn == txnID {
			return w, nil
		}

		next := w.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		next.Sequence++
		next.Txn = txnID
		next.Checksum = s.signer.Tag(next)

		applied, err := s.repo.UpdateBalance(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("wallet %s conditional update: %w", uid, err)
		}
		if applied {
			return next, nil
		}

		s.metrics.SequenceConflict()
		s.logger.Warn("wallet sequence conflict, retrying", map[string]any{
			"uid":      uid.String(),
			"txn":      txnID.String(),
			"attempt":  attempt + 1,
			"sequence": w.Sequence,
		})
	}

	return nil, &errs.ConflictError{UID: uid, Txn: txnID, Attempts: attempt}
}

// AddCredits bumps the credits field by amount through its own conditional
// write. Credits live outside the checksum and the sequence; the CreditLog
// is their source of truth.
func (s *Store) AddCredits(ctx context.Context, uid xid.ID, amount int64) error {
	var attempt int
	for attempt = 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			s.tp.Sleep(s.backoff(attempt))
		}

		w, err := s.repo.Get(ctx, uid)
		if err != nil {
			return err
		}

		applied, err := s.repo.UpdateCredits(ctx, uid, w.Credits, w.Credits+amount)
		if err != nil {
			return fmt.Errorf("wallet %s credits update: %w", uid, err)
		}
		if applied {
			return nil
		}
	}

	return &errs.ConflictError{UID: uid, Attempts: attempt}
}

// getOrCreate reads the wallet, inserting a zero row on first touch. Create
// losing the insert race is fine: someone else made the row and the re-read
// observes it.
func (s *Store) getOrCreate(ctx context.Context, uid xid.ID) (*entity.Wallet, error) {
	w, err := s.repo.Get(ctx, uid)
	if err == nil {
		return w, nil
	}
	if !errs.IsNotFoundError(err) {
		return nil, err
	}

	created, err := s.repo.Create(ctx, entity.NewWallet(uid))
	if err != nil {
		return nil, fmt.Errorf("wallet %s create: %w", uid, err)
	}
	if created {
		s.logger.Info("wallet created", map[string]any{"uid": uid.String()})
	}
	return s.repo.Get(ctx, uid)
}

// backoff computes the exponential delay for the given attempt, capped at
// MaxInterval.
func (s *Store) backoff(attempt int) time.Duration {
	d := s.retry.RetryInterval * (1 << uint(attempt-1))
	if d > s.retry.MaxInterval {
		d = s.retry.MaxInterval
	}
	return d
}
