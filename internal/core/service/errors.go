package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/asset-ledger/internal/core/domain"
)

var callerErrors = []error{
	domain.ErrOutOfStock,
	domain.ErrAlreadyIssued,
	domain.ErrNotIssued,
	domain.ErrDuplicateUniqueID,
	domain.ErrInvalidLocation,
	domain.ErrCapacityExceeded,
	domain.ErrItemCurrentlyIssued,
	domain.ErrInsufficientStock,
	domain.ErrCascadeFailure,
	domain.ErrNotFound,
	domain.ErrInvalidStatus,
	domain.ErrInvalidTransition,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidRange,
	domain.ErrConcurrentUpdate,
	domain.ErrRequestNotPending,
	domain.ErrDuplicateRequest,
	domain.ErrTransaction,
}

func isCallerError(err error) bool {
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// txError keeps caller-visible kinds intact and folds anything else into ErrTransaction.
func txError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isCallerError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrTransaction, err)
}
