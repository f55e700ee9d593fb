package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/asset-ledger/internal/core/domain"
)

type errorKind struct {
	err     error
	status  int
	code    codes.Code
	message string
}

// errorKinds is checked in order, the first match wins.
var errorKinds = []errorKind{
	{domain.ErrCascadeFailure, http.StatusInternalServerError, codes.Internal, "cascade deletion failed"},
	{domain.ErrNotFound, http.StatusNotFound, codes.NotFound, "not found"},
	{domain.ErrOutOfStock, http.StatusConflict, codes.FailedPrecondition, "out of stock"},
	{domain.ErrAlreadyIssued, http.StatusConflict, codes.FailedPrecondition, "item already issued"},
	{domain.ErrNotIssued, http.StatusConflict, codes.FailedPrecondition, "item not issued"},
	{domain.ErrItemCurrentlyIssued, http.StatusConflict, codes.FailedPrecondition, "item currently issued"},
	{domain.ErrInsufficientStock, http.StatusConflict, codes.FailedPrecondition, "insufficient stock"},
	{domain.ErrRequestNotPending, http.StatusConflict, codes.FailedPrecondition, "request is not pending"},
	{domain.ErrInvalidTransition, http.StatusConflict, codes.FailedPrecondition, "invalid status transition"},
	{domain.ErrDuplicateUniqueID, http.StatusConflict, codes.AlreadyExists, "unique id already exists"},
	{domain.ErrDuplicateRequest, http.StatusConflict, codes.AlreadyExists, "duplicate request"},
	{domain.ErrCapacityExceeded, http.StatusConflict, codes.ResourceExhausted, "location capacity exceeded"},
	{domain.ErrConcurrentUpdate, http.StatusConflict, codes.Aborted, "concurrent update, retry"},
	{domain.ErrInvalidLocation, http.StatusUnprocessableEntity, codes.InvalidArgument, "invalid location"},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity, codes.InvalidArgument, "invalid status"},
	{domain.ErrInvalidQuantity, http.StatusUnprocessableEntity, codes.InvalidArgument, "invalid quantity"},
	{domain.ErrInvalidRange, http.StatusUnprocessableEntity, codes.InvalidArgument, "invalid date range"},
}

func classify(err error) errorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k
		}
	}
	return errorKind{err: err, status: http.StatusInternalServerError, code: codes.Internal, message: "internal error"}
}
