package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
)

// MapError translates a database error into a domain error. The conditional
// writes never rely on error inspection for their compare-and-set outcome
// (they check RowsAffected), so this only covers lookups and inserts.
func MapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint"):
		return errs.ErrConflict
	case strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization"):
		return errs.ErrSequenceConflict
	default:
		return fmt.Errorf("%w: %s: %s", errs.ErrInternalServer, operation, err)
	}
}
