package relationaldb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrMissingHost            = errors.New("database host is required")
	ErrMissingDatabase        = errors.New("database name is required")
	ErrMissingUsername        = errors.New("database username is required")
	ErrInvalidPort            = errors.New("invalid database port")
	ErrInvalidMaxOpenConns    = errors.New("max open connections must be >= 0")
	ErrInvalidMaxIdleConns    = errors.New("max idle connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen  = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout         = errors.New("timeout must be positive")
	ErrInvalidConnMaxLifetime = errors.New("connection max lifetime must be >= 0")
	ErrInvalidConnMaxIdleTime = errors.New("connection max idle time must be >= 0")

	// Connection errors
	ErrDatabaseClosed = errors.New("database connection is closed")

	// Data errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidLimit        = errors.New("invalid query limit")
)

// ErrorType classifies history store failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeData
	ErrorTypeQuery
	ErrorTypeSchema
)

// DatabaseError is a failed history store operation
type DatabaseError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Retryable bool
}

func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// NewDatabaseError creates a DatabaseError and classifies whether the
// operation may be retried
func NewDatabaseError(errorType ErrorType, operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: retryable(errorType, cause),
	}
}

func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConfiguration, operation, message, cause)
}

func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConnection, operation, message, cause)
}

func NewDataError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeData, operation, message, cause)
}

func NewQueryError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeQuery, operation, message, cause)
}

func NewSchemaError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeSchema, operation, message, cause)
}

// transientPatterns mark driver errors worth retrying
var transientPatterns = []string{"deadlock", "timeout", "connection", "could not serialize"}

func retryable(errorType ErrorType, cause error) bool {
	switch {
	case errorType == ErrorTypeConnection:
		return true
	case errorType != ErrorTypeQuery || cause == nil:
		return false
	case errors.Is(cause, driver.ErrBadConn), errors.Is(cause, context.DeadlineExceeded):
		return true
	}
	msg := strings.ToLower(cause.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// IsDataError reports whether err is about missing or undecodable records
func IsDataError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == ErrorTypeData
}

// IsRetryable reports whether a failed operation may succeed if repeated
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Retryable
}
