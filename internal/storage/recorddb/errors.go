package recorddb

import (
	"errors"
	"fmt"
	"strings"
)

// Store error sentinels.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDatabaseClosed    = errors.New("database connection is closed")
	ErrTransactionClosed = errors.New("transaction is closed")
	ErrConnectionFailed  = errors.New("failed to connect to database")

	ErrMissingHost     = errors.New("database host is required")
	ErrMissingDatabase = errors.New("database name is required")
	ErrInvalidPort     = errors.New("invalid database port")
	ErrInvalidDriver   = errors.New("invalid database driver")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
)

// ErrorType categorizes store failures; the type drives retryability.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeTransaction
	ErrorTypeQuery
	ErrorTypeData
	ErrorTypeSchema
)

// StoreError provides operation context around a persistence failure and
// carries the retryable flag the batch writer consults.
type StoreError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Retryable bool
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a StoreError, deriving retryability from the type
// and cause.
func NewStoreError(t ErrorType, operation, message string, cause error) *StoreError {
	return &StoreError{
		Type:      t,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: retryableCause(t, cause),
	}
}

func NewConfigurationError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeConfiguration, operation, message, cause)
}

func NewConnectionError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeConnection, operation, message, cause)
}

func NewTransactionError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeTransaction, operation, message, cause)
}

func NewQueryError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeQuery, operation, message, cause)
}

func NewSchemaError(operation, message string, cause error) *StoreError {
	return NewStoreError(ErrorTypeSchema, operation, message, cause)
}

func retryableCause(t ErrorType, cause error) bool {
	switch t {
	case ErrorTypeConnection:
		return true
	case ErrorTypeTransaction, ErrorTypeQuery:
		if cause == nil {
			return false
		}
		msg := strings.ToLower(cause.Error())
		for _, pattern := range []string{"deadlock", "timeout", "connection", "temporary", "busy", "locked"} {
			if strings.Contains(msg, pattern) {
				return true
			}
		}
	}
	return false
}

// IsRetryable reports whether an operation that failed with err is worth
// retrying.
func IsRetryable(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Retryable
	}
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "database is locked", "deadlock", "timeout", "temporary failure", "busy"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
