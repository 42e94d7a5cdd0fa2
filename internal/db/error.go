package db

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// DuplicateKeyError is an error type for duplicate key errors
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var target *DuplicateKeyError
	return errors.As(err, &target)
}

// Not found Error
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// ConcurrentUpdateError is returned when a record changed between the read
// and the write of an operation, detected through its version field.
type ConcurrentUpdateError struct {
	Key     string
	Message string
}

func (e *ConcurrentUpdateError) Error() string {
	return e.Message
}

func IsConcurrentUpdateError(err error) bool {
	var target *ConcurrentUpdateError
	return errors.As(err, &target)
}

type InsufficientFundsError struct {
	Key     string
	Message string
}

func (e *InsufficientFundsError) Error() string {
	return e.Message
}

func IsInsufficientFundsError(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}

type UnauthorizedTransferError struct {
	Key     string
	Message string
}

func (e *UnauthorizedTransferError) Error() string {
	return e.Message
}

func IsUnauthorizedTransferError(err error) bool {
	var target *UnauthorizedTransferError
	return errors.As(err, &target)
}

// wrapDuplicateKey converts a mongo duplicate key write error into
// DuplicateKeyError, returning any other error unchanged.
func wrapDuplicateKey(err error, key, message string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     key,
			Message: message,
		}
	}
	return err
}
