package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Connector errors
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeQueryFailed      ErrorCode = "QUERY_FAILED"

	// Pool errors
	ErrCodePoolExhausted ErrorCode = "POOL_EXHAUSTED"
	ErrCodePoolClosed    ErrorCode = "POOL_CLOSED"

	// Runner errors
	ErrCodeSetupFailed  ErrorCode = "SETUP_FAILED"
	ErrCodeExportFailed ErrorCode = "EXPORT_FAILED"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	// Fields names the offending configuration keys, if any
	Fields []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapError wraps an existing error with an error code and message
func WrapError(code ErrorCode, message string, err error) *AppError {
	return NewAppError(code, message, err)
}

// NewConfigurationError reports invalid or incomplete configuration.
// fields lists exactly the keys that are missing or malformed.
func NewConfigurationError(message string, fields ...string) *AppError {
	e := NewAppError(ErrCodeConfiguration, message, nil)
	if len(fields) > 0 {
		e.Fields = append([]string(nil), fields...)
	}
	return e
}

// NewConnectionError reports a failure to establish a vendor session
func NewConnectionError(message string, err error) *AppError {
	return NewAppError(ErrCodeConnectionFailed, message, err)
}

// NewQueryError reports a failed statement execution
func NewQueryError(message string, err error) *AppError {
	return NewAppError(ErrCodeQueryFailed, message, err)
}

// NewPoolExhaustedError reports an acquisition that timed out
func NewPoolExhaustedError(message string) *AppError {
	return NewAppError(ErrCodePoolExhausted, message, nil)
}

// NewPoolClosedError reports use of a pool after CloseAll
func NewPoolClosedError(message string) *AppError {
	return NewAppError(ErrCodePoolClosed, message, nil)
}

// NewSetupError reports a failed setup statement
func NewSetupError(message string, err error) *AppError {
	return NewAppError(ErrCodeSetupFailed, message, err)
}

// NewExportError reports a failed result export
func NewExportError(message string, err error) *AppError {
	return NewAppError(ErrCodeExportFailed, message, err)
}

// Code returns the code of the first AppError in err's chain, or "".
func Code(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MissingFields returns the configuration keys carried by err, if any.
func MissingFields(err error) []string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

func hasCode(err error, code ErrorCode) bool {
	return err != nil && Code(err) == code
}

// IsConfigurationError checks if the error is a configuration error
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return hasCode(err, ErrCodeConnectionFailed)
}

// IsQueryError checks if the error is a query error
func IsQueryError(err error) bool {
	return hasCode(err, ErrCodeQueryFailed)
}

// IsPoolExhausted checks if the error is a pool exhaustion error
func IsPoolExhausted(err error) bool {
	return hasCode(err, ErrCodePoolExhausted)
}

// IsPoolClosed checks if the error is a closed pool error
func IsPoolClosed(err error) bool {
	return hasCode(err, ErrCodePoolClosed)
}

// IsSetupError checks if the error is a setup error
func IsSetupError(err error) bool {
	return hasCode(err, ErrCodeSetupFailed)
}

// IsExportError checks if the error is an export error
func IsExportError(err error) bool {
	return hasCode(err, ErrCodeExportFailed)
}
