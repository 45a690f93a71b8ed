package error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/xid"
)

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InvariantViolation", ErrInvariantViolation, 4001},
		{"InsufficientBalance", ErrInsufficientBalance, 4002},
		{"InvalidKind", ErrInvalidKind, 4003},
		{"InvalidAmount", ErrInvalidAmount, 4003},
		{"RequireCredits", ErrRequireCredits, 4003},
		{"InvalidParticipant", ErrInvalidParticipant, 4004},
		{"InvalidCurrency", ErrInvalidCurrency, 4005},
		{"NotFound", ErrNotFound, 4040},
		{"InvalidStateTransition", ErrInvalidStateTransition, 4090},
		{"Conflict", ErrConflict, 4090},
		{"SequenceConflict", ErrSequenceConflict, 4091},
		{"ChecksumMismatch", ErrChecksumMismatch, 5001},
		{"ProviderError", ErrProviderError, 5002},
		{"UnknownError", errors.New("unknown error"), 5000},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrNotFound), 4040},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if code := ErrorCode(tc.err); code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	uid := xid.New()
	txn := xid.New()

	testCases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"ChecksumError", &ChecksumError{UID: uid, Sequence: 3}, ErrChecksumMismatch},
		{"ConflictError", &ConflictError{UID: uid, Txn: txn, Attempts: 5}, ErrSequenceConflict},
		{"InsufficientBalanceError", &InsufficientBalanceError{UID: uid, Kind: "spend", Amount: 10}, ErrInsufficientBalance},
		{"StateTransitionError", &StateTransitionError{UID: uid, Txn: txn, From: 3, To: -1}, ErrInvalidStateTransition},
		{"ProviderError", &ProviderError{Provider: "stripe", Code: "card_declined"}, ErrProviderError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Errorf("errors.Is(%T, %v) = false, want true", tc.err, tc.sentinel)
			}
			wrapped := fmt.Errorf("outer: %w", tc.err)
			if !errors.Is(wrapped, tc.sentinel) {
				t.Errorf("wrapped %T does not match %v", tc.err, tc.sentinel)
			}
		})
	}
}

func TestConflictErrorMessage(t *testing.T) {
	uid := xid.New()
	txn := xid.New()
	err := &ConflictError{UID: uid, Txn: txn, Attempts: 3}

	want := fmt.Sprintf("wallet %s sequence conflict applying txn %s after 3 attempts", uid, txn)
	if err.Error() != want {
		t.Errorf("ConflictError.Error() = %q, want %q", err.Error(), want)
	}

	fields := err.LogFields()
	if fields["attempts"] != 3 {
		t.Errorf("LogFields()[attempts] = %v, want 3", fields["attempts"])
	}
}

func TestIsHelpers(t *testing.T) {
	if !IsNotFoundError(fmt.Errorf("row: %w", ErrNotFound)) {
		t.Error("IsNotFoundError missed a wrapped ErrNotFound")
	}
	if IsNotFoundError(ErrConflict) {
		t.Error("IsNotFoundError matched ErrConflict")
	}
	if !IsSequenceConflictError(&ConflictError{}) {
		t.Error("IsSequenceConflictError missed a ConflictError")
	}
	if !IsChecksumMismatchError(&ChecksumError{}) {
		t.Error("IsChecksumMismatchError missed a ChecksumError")
	}

	for _, err := range []error{
		ErrInvariantViolation, ErrInsufficientBalance, ErrInvalidKind,
		ErrInvalidParticipant, ErrInvalidAmount, ErrInvalidCurrency,
		ErrRequireCredits,
	} {
		if !IsValidationError(err) {
			t.Errorf("IsValidationError(%v) = false, want true", err)
		}
	}
	if IsValidationError(ErrSequenceConflict) {
		t.Error("IsValidationError matched ErrSequenceConflict")
	}
}
