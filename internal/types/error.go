package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	NotFound             ErrorCode = "NOT_FOUND"
	Conflict             ErrorCode = "CONFLICT"
	TransferFailed       ErrorCode = "TRANSFER_FAILED"
	InvalidPercentage    ErrorCode = "INVALID_PERCENTAGE"
	PrincipalTooSmall    ErrorCode = "PRINCIPAL_TOO_SMALL"
	InvalidAmount        ErrorCode = "INVALID_AMOUNT"
	LoanNotActive        ErrorCode = "LOAN_NOT_ACTIVE"
	Unauthorized         ErrorCode = "UNAUTHORIZED"
	Overflow             ErrorCode = "OVERFLOW"
	DivideByZero         ErrorCode = "DIVIDE_BY_ZERO"
	AlreadyInitialized   ErrorCode = "ALREADY_INITIALIZED"
	NotInitialized       ErrorCode = "NOT_INITIALIZED"
)

// Error is the error type returned across the service boundary. It keeps the
// underlying error for errors.Is / errors.As.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, errors.New(msg))
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationError, err)
}

func NewNotFoundError(err error) *Error {
	return NewError(http.StatusNotFound, NotFound, err)
}

// IsErrorCode reports whether err is a *Error carrying the given code
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode == code
	}
	return false
}
