package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/gitdigital/founder-loan-service/internal/db"
	"github.com/gitdigital/founder-loan-service/internal/loan"
	"github.com/gitdigital/founder-loan-service/internal/types"
)

// errTransferFailed wraps any failure of the transfer primitive.
var errTransferFailed = errors.New("transfer failed")

var domainErrors = []struct {
	err        error
	statusCode int
	code       types.ErrorCode
}{
	{loan.ErrInvalidPercentage, http.StatusBadRequest, types.InvalidPercentage},
	{loan.ErrPrincipalTooSmall, http.StatusBadRequest, types.PrincipalTooSmall},
	{loan.ErrInvalidAmount, http.StatusBadRequest, types.InvalidAmount},
	{loan.ErrInvalidFeeBps, http.StatusBadRequest, types.ValidationError},
	{loan.ErrInvalidCreditScore, http.StatusBadRequest, types.ValidationError},
	{loan.ErrInvalidIdentity, http.StatusBadRequest, types.ValidationError},
	{loan.ErrUnauthorized, http.StatusForbidden, types.Unauthorized},
	{loan.ErrLoanNotActive, http.StatusConflict, types.LoanNotActive},
	{loan.ErrAlreadyInitialized, http.StatusConflict, types.AlreadyInitialized},
	{loan.ErrNotInitialized, http.StatusPreconditionFailed, types.NotInitialized},
	{loan.ErrOverflow, http.StatusUnprocessableEntity, types.Overflow},
	{loan.ErrDivideByZero, http.StatusInternalServerError, types.DivideByZero},
	{errTransferFailed, http.StatusUnprocessableEntity, types.TransferFailed},
}

// mapError converts an operation failure into the service boundary error.
func mapError(err error) *types.Error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return typed
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return types.NewError(d.statusCode, d.code, err)
		}
	}

	switch {
	case db.IsNotFoundError(err):
		return types.NewNotFoundError(err)
	case db.IsConcurrentUpdateError(err), db.IsDuplicateKeyError(err):
		return types.NewError(http.StatusConflict, types.Conflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.NewError(http.StatusGatewayTimeout, types.InternalServiceError, err)
	default:
		return types.NewInternalServiceError(err)
	}
}

// isRetryable reports whether the same request may succeed later without
// being changed.
func isRetryable(err *types.Error) bool {
	return err.ErrorCode == types.InternalServiceError || err.ErrorCode == types.Conflict
}
