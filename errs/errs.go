package errs

import (
	"errors"
	"fmt"
)

// ErrConfiguration indicates malformed construction options, such as an
// unusable connection string or a nil engine. It is fatal and surfaced
// immediately at construction time, never retried.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports which construction parameter was unusable.
type ConfigurationError struct {
	ParamName string
	Cause     error
}

// NewConfigurationError creates a ConfigurationError for the given parameter.
func NewConfigurationError(paramName string) *ConfigurationError {
	return &ConfigurationError{ParamName: paramName}
}

// NewConfigurationErrorWithCause creates a ConfigurationError wrapping the
// underlying cause, typically a parse or connection setup failure.
func NewConfigurationErrorWithCause(paramName string, cause error) *ConfigurationError {
	return &ConfigurationError{ParamName: paramName, Cause: cause}
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration: %s (cause: %s)", e.ParamName, e.Cause)
	}
	return fmt.Sprintf("invalid configuration: %s", e.ParamName)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ErrSessionClosed indicates an operation was attempted on a session past its
// terminal close. This is always surfaced and never silently ignored: it means
// the caller kept a session reference alive beyond its scope's exit.
var ErrSessionClosed = errors.New("session is closed")

// SessionClosedError records which operation hit the closed session.
type SessionClosedError struct {
	Op string
}

// NewSessionClosedError creates a SessionClosedError for the given operation name.
func NewSessionClosedError(op string) *SessionClosedError {
	return &SessionClosedError{Op: op}
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("session is closed: %s", e.Op)
}

func (e *SessionClosedError) Unwrap() error {
	return ErrSessionClosed
}

// ErrTransaction indicates a begin, commit or rollback failure reported by the
// underlying engine. The library attempts a rollback when a scoped body fails
// but never retries commits.
var ErrTransaction = errors.New("transaction operation failed")

// TransactionError carries the transaction operation name and the engine's error.
type TransactionError struct {
	Op    string
	Cause error
}

// NewTransactionError creates a TransactionError for the given operation.
func NewTransactionError(op string) *TransactionError {
	return &TransactionError{Op: op}
}

// NewTransactionErrorWithCause creates a TransactionError wrapping the engine's
// commit/rollback failure.
func NewTransactionErrorWithCause(op string, cause error) *TransactionError {
	return &TransactionError{Op: op, Cause: cause}
}

func (e *TransactionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transaction %s failed (cause: %s)", e.Op, e.Cause)
	}
	return fmt.Sprintf("transaction %s failed", e.Op)
}

func (e *TransactionError) Unwrap() error {
	return ErrTransaction
}
