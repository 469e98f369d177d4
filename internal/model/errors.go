package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by store drivers, adapters, and the coordinator.
// Drivers translate their native failure signals (SQLSTATE 23505, SQLite
// constraint codes, HTTP 409/404) into these so callers can branch with
// errors.Is instead of inspecting messages.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateID        = errors.New("duplicate id")
	ErrConflict           = errors.New("conflict")
	ErrRemoteUnavailable  = errors.New("remote store unavailable")
	ErrNotInitialized     = errors.New("coordinator not initialized")
	ErrAlreadyInitialized = errors.New("coordinator already initialized")
)

// ValidationError reports a structural check failure. It is returned before
// any store I/O is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a genuine I/O failure from a store driver, carrying the
// operation that failed. Duplicate-ID conflicts resolved by deduplication
// never surface as StorageError.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err with the failing operation name.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// PersistenceVerificationError reports that a post-write read-back found no
// record with the given ID in the authoritative store.
type PersistenceVerificationError struct {
	ID string
}

func (e *PersistenceVerificationError) Error() string {
	return fmt.Sprintf("persistence verification failed: record %s not found after write", e.ID)
}

// RollbackError reports a bulk write that failed partway and was unwound
// successfully. Unwrap yields the write failure that triggered the unwind.
type RollbackError struct {
	Cause      error
	RolledBack []string
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("bulk write failed, rolled back %d items: %v", len(e.RolledBack), e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Cause }

// RollbackFailedError reports a bulk write whose unwind also failed. The
// store is left holding part of the batch; Remaining lists the item IDs
// still present. This is the one error class that must always reach the
// caller as a data-integrity warning.
type RollbackFailedError struct {
	Cause       error
	RollbackErr error
	Remaining   []string
}

func (e *RollbackFailedError) Error() string {
	return fmt.Sprintf("bulk write failed and rollback failed, %d items left behind (%s): write: %v, rollback: %v",
		len(e.Remaining), strings.Join(e.Remaining, ","), e.Cause, e.RollbackErr)
}

func (e *RollbackFailedError) Unwrap() error { return e.Cause }
