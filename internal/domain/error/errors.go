package error

import (
	"errors"
	"fmt"

	"github.com/rs/xid"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvariantViolation     = 4001
	CodeInsufficientBalance    = 4002
	CodeInvalidKind            = 4003
	CodeInvalidParticipant     = 4004
	CodeInvalidCurrency        = 4005
	CodeNotFound               = 4040
	CodeInvalidStateTransition = 4090
	CodeSequenceConflict       = 4091

	// 5xxx - Server errors
	CodeInternalServer   = 5000
	CodeChecksumMismatch = 5001
	CodeProviderError    = 5002
)

// Base error types
var (
	// ErrSequenceConflict is returned when a conditional write loses the
	// optimistic-concurrency race and the retry budget is exhausted
	ErrSequenceConflict = errors.New("wallet sequence conflict")

	// ErrChecksumMismatch is returned when a wallet row fails checksum
	// verification; it is fatal and never repaired automatically
	ErrChecksumMismatch = errors.New("wallet checksum mismatch")

	// ErrInvariantViolation is returned when the transaction amount equation
	// amount == sys_fee + sub_shares + payee_net does not hold
	ErrInvariantViolation = errors.New("transaction amount invariant violated")

	// ErrInsufficientBalance is returned when the payer's available balance
	// cannot cover the transaction at prepare time
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidStateTransition is returned for a transition outside the
	// allowed state graph; the transaction is left untouched
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrProviderError is returned when the payment provider gateway fails
	ErrProviderError = errors.New("payment provider error")

	// ErrStaleTransaction marks a transaction the reconciler found past the
	// staleness threshold; it is not user-facing
	ErrStaleTransaction = errors.New("stale transaction")

	// ErrInvalidKind is returned for an unregistered transaction kind
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrInvalidParticipant is returned when a payer, payee or sub-payee is
	// not permitted for the transaction kind
	ErrInvalidParticipant = errors.New("invalid transaction participant")

	// ErrInvalidAmount is returned when an amount is not strictly positive
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidCurrency is returned for an unsupported fiat currency or an
	// amount outside the currency's charge bounds
	ErrInvalidCurrency = errors.New("invalid currency")

	// ErrRequireCredits is returned when a transaction kind requires the
	// payer to hold credits and the payer has none
	ErrRequireCredits = errors.New("credits required for transaction")

	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when an insert-if-not-exists write was not
	// applied because the row already exists
	ErrConflict = errors.New("resource already exists")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvariantViolation):
		return CodeInvariantViolation
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrRequireCredits):
		return CodeInvalidKind
	case errors.Is(err, ErrInvalidParticipant):
		return CodeInvalidParticipant
	case errors.Is(err, ErrInvalidCurrency):
		return CodeInvalidCurrency
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrConflict):
		return CodeInvalidStateTransition
	case errors.Is(err, ErrSequenceConflict):
		return CodeSequenceConflict
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrChecksumMismatch):
		return CodeChecksumMismatch
	case errors.Is(err, ErrProviderError):
		return CodeProviderError
	default:
		return CodeInternalServer
	}
}

// ChecksumError carries the wallet whose row failed verification. It halts
// all automatic processing of that wallet and must surface as an operator
// alarm, never as a silent repair.
type ChecksumError struct {
	UID      xid.ID
	Sequence int64
}

// Error implements the error interface
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("wallet %s checksum mismatch at sequence %d", e.UID, e.Sequence)
}

// Is checks if the target error is an ErrChecksumMismatch
func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

// LogFields returns a map of fields for structured logging
func (e *ChecksumError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "checksum_mismatch",
		"uid":        e.UID.String(),
		"sequence":   e.Sequence,
		"error_code": CodeChecksumMismatch,
	}
}

// ConflictError reports a conditional write that kept losing the sequence
// race after the internal retry budget was spent.
type ConflictError struct {
	UID      xid.ID
	Txn      xid.ID
	Attempts int
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("wallet %s sequence conflict applying txn %s after %d attempts",
		e.UID, e.Txn, e.Attempts)
}

// Is checks if the target error is an ErrSequenceConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrSequenceConflict
}

// LogFields returns a map of fields for structured logging
func (e *ConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "sequence_conflict",
		"uid":        e.UID.String(),
		"txn":        e.Txn.String(),
		"attempts":   e.Attempts,
		"error_code": CodeSequenceConflict,
	}
}

// InsufficientBalanceError provides detailed error information for
// insufficient balance at prepare time.
type InsufficientBalanceError struct {
	UID       xid.ID
	Kind      string
	Amount    int64
	Available int64
}

// Error implements the error interface
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s transaction by %s: required %d, available %d",
		e.Kind, e.UID, e.Amount, e.Available)
}

// Is checks if the target error is an ErrInsufficientBalance
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientBalanceError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_balance",
		"uid":        e.UID.String(),
		"kind":       e.Kind,
		"amount":     e.Amount,
		"available":  e.Available,
		"error_code": CodeInsufficientBalance,
	}
}

// StateTransitionError reports an attempted transition outside the allowed
// state graph.
type StateTransitionError struct {
	UID  xid.ID
	Txn  xid.ID
	From int8
	To   int8
}

// Error implements the error interface
func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %d -> %d for transaction %s/%s",
		e.From, e.To, e.UID, e.Txn)
}

// Is checks if the target error is an ErrInvalidStateTransition
func (e *StateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// LogFields returns a map of fields for structured logging
func (e *StateTransitionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "invalid_state_transition",
		"uid":        e.UID.String(),
		"txn":        e.Txn.String(),
		"from":       e.From,
		"to":         e.To,
		"error_code": CodeInvalidStateTransition,
	}
}

// ProviderError carries the failure reported by a payment provider gateway.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s error %s: %s", e.Provider, e.Code, e.Message)
}

// Is checks if the target error is an ErrProviderError
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderError
}

// LogFields returns a map of fields for structured logging
func (e *ProviderError) LogFields() map[string]any {
	return map[string]any{
		"error_type":   "provider_error",
		"provider":     e.Provider,
		"failure_code": e.Code,
		"failure_msg":  e.Message,
		"error_code":   CodeProviderError,
	}
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSequenceConflictError checks if an error is a sequence conflict
func IsSequenceConflictError(err error) bool {
	return errors.Is(err, ErrSequenceConflict)
}

// IsChecksumMismatchError checks if an error is a checksum mismatch
func IsChecksumMismatchError(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}

// IsValidationError checks if an error is a prepare-time validation error
// with no persisted effect
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidParticipant) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidCurrency) ||
		errors.Is(err, ErrRequireCredits)
}
