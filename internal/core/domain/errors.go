package domain

import "errors"

var (
	ErrOutOfStock          = errors.New("out of stock")
	ErrAlreadyIssued       = errors.New("item already issued")
	ErrNotIssued           = errors.New("item not issued")
	ErrDuplicateUniqueID   = errors.New("duplicate unique id")
	ErrInvalidLocation     = errors.New("invalid location")
	ErrCapacityExceeded    = errors.New("location capacity exceeded")
	ErrItemCurrentlyIssued = errors.New("item currently issued")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrCascadeFailure      = errors.New("cascade deletion failed")
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrConcurrentUpdate  = errors.New("concurrent update conflict")
	ErrRequestNotPending = errors.New("request is not pending")
	ErrDuplicateRequest  = errors.New("duplicate request")

	// ErrTransaction marks an unexpected storage failure inside an atomic operation.
	ErrTransaction = errors.New("transaction failed")
)
