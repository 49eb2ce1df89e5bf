package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeStorage      ErrorCode = "STORAGE"
	ErrCodeNetwork      ErrorCode = "NETWORK"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches two domain errors with the same code and message, so wrapped
// sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation, lookup and I/O failures surfaced to presenters.
var (
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "task not found")
	ErrSnapshotNotFound    = NewError(ErrCodeNotFound, "snapshot not found")
	ErrEmptyText           = NewError(ErrCodeInvalid, "task text must not be empty")
	ErrInvalidDelay        = NewError(ErrCodeInvalid, "reminder delay must be a positive number of seconds")
	ErrReminderOnCompleted = NewError(ErrCodeInvalid, "a completed task cannot have a reminder")
	ErrInvalidFilter       = NewError(ErrCodeInvalid, "unknown task filter")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrConfirmRequired     = NewError(ErrCodeConflict, "deleting all tasks requires confirmation")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
)

// StorageError classifies a persistence read/write failure.
func StorageError(message string, err error) *Error {
	return WrapError(ErrCodeStorage, message, err)
}

// NetworkError classifies a failure talking to a remote source.
func NetworkError(message string, err error) *Error {
	return WrapError(ErrCodeNetwork, message, err)
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
