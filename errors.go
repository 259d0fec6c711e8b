package eventuate

import (
	"errors"
	"fmt"
)

// Error represents an eventuate library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for eventuate operations.
const (
	// ErrCodeNoData indicates no data was found.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates database operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeSerialization indicates a message body failed to serialize or deserialize.
	ErrCodeSerialization = "SERIALIZATION_ERROR"

	// ErrCodeBrokerUnavailable indicates the broker could not be reached.
	ErrCodeBrokerUnavailable = "BROKER_UNAVAILABLE"

	// ErrCodePoisonPill indicates a fetched record could not be decoded into a Message.
	ErrCodePoisonPill = "POISON_PILL"

	// ErrCodeDuplicate indicates a message was already handled by this subscriber.
	ErrCodeDuplicate = "DUPLICATE_MESSAGE"

	// ErrCodeHandler indicates a registered handler returned an error.
	ErrCodeHandler = "HANDLER_ERROR"

	// ErrCodeNoHandler indicates no handler was registered for an event type.
	ErrCodeNoHandler = "NO_HANDLER"

	// ErrCodeShutdown indicates an operation was aborted by shutdown.
	ErrCodeShutdown = "SHUTDOWN"
)

// Common errors.
var (
	// ErrNoData is returned when a query returns no results.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrInvalidConfiguration is returned when configuration is invalid.
	ErrInvalidConfiguration = &Error{
		Code:    ErrCodeConfiguration,
		Message: "invalid configuration",
	}

	// ErrDuplicateMessage identifies a duplicate delivery (see IsDuplicate). The
	// duplicate-detection decorator does not return it: a duplicate is skipped with a nil error.
	ErrDuplicateMessage = &Error{
		Code:    ErrCodeDuplicate,
		Message: "message already handled by this subscriber",
	}

	// ErrNoHandler identifies an event type with no registered handler. The type-dispatch
	// decorator does not return it: such a message passes on with a nil error.
	ErrNoHandler = &Error{
		Code:    ErrCodeNoHandler,
		Message: "no handler registered for event type",
	}

	// ErrShuttingDown is returned when an operation is rejected because the owning
	// component is stopping or stopped.
	ErrShuttingDown = &Error{
		Code:    ErrCodeShutdown,
		Message: "component is shutting down",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeNoData
	}
	return errors.Is(err, ErrNoData)
}

// IsDuplicate checks if an error indicates a duplicate message.
func IsDuplicate(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeDuplicate
	}
	return errors.Is(err, ErrDuplicateMessage)
}
