// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Category store errors.
	ErrNotFound          = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrProtectedCategory = errors.New("category is protected")
	ErrStoreCorrupt      = errors.New("category store corrupted")

	// Batch processing errors.
	ErrNoRecords    = errors.New("no records to process")
	ErrWriteFailure = errors.New("report write failed")

	// Transfer errors.
	ErrTransferFailed = errors.New("transfer failed")
	ErrNoRemoteFiles  = errors.New("no remote files matched")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	// Check for specific retryable errors
	if errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Check for retryable error type
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
