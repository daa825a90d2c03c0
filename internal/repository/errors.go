// Package repository wraps the query layer with derived behavior: toggle
// semantics, timestamp stamping, cross-entity fan-out, and seeding. Storage
// faults surface as *StorageError, bad caller input as *ValidationError, and
// singular lookups that match nothing as (nil, nil). Raw store errors never
// escape a repository.
package repository

import (
	"fmt"

	"go.uber.org/zap"
)

// StorageError wraps an I/O or constraint failure from the underlying store.
type StorageError struct {
	code string
	err  error
}

func (e *StorageError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StorageError) Unwrap() error {
	return e.err
}

// Code identifies the failing operation as "operation.reason".
func (e *StorageError) Code() string {
	return e.code
}

func newStorageError(operation, reason string, cause error) error {
	return &StorageError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ValidationError reports caller-supplied input that fails a business rule.
type ValidationError struct {
	code string
	err  error
}

func (e *ValidationError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Code identifies the rejected input as "operation.reason".
func (e *ValidationError) Code() string {
	return e.code
}

func newValidationError(operation, reason string, cause error) error {
	return &ValidationError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// NewStorageFailure wraps a store fault for components outside this package
// that share the repository error taxonomy.
func NewStorageFailure(operation, reason string, cause error) error {
	return newStorageError(operation, reason, cause)
}

// NewValidationFailure wraps rejected input for components outside this
// package that share the repository error taxonomy.
func NewValidationFailure(operation, reason string, cause error) error {
	return newValidationError(operation, reason, cause)
}

func logFailure(logger *zap.Logger, operation, reason string, err error, fields ...zap.Field) {
	if logger == nil {
		return
	}
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	logger.Error("repository error", attrs...)
}
