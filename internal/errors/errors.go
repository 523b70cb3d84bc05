package errors

import (
	"fmt"
)

// QuarryError is the structured error type for Quarry.
// It provides context for error handling, logging, and user presentation.
type QuarryError struct {
	// Code is the unique error code (e.g., "ERR_301_PARSE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Input, etc.).
	Category Category

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *QuarryError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *QuarryError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with QuarryError.
func (e *QuarryError) Is(target error) bool {
	if t, ok := target.(*QuarryError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *QuarryError) WithDetail(key, value string) *QuarryError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new QuarryError with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *QuarryError {
	return &QuarryError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new QuarryError with a formatted message.
func Newf(code string, format string, args ...any) *QuarryError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a QuarryError from an existing error.
// The error's message becomes the QuarryError message.
func Wrap(code string, err error) *QuarryError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ParseError creates an input-parsing error. The prefix is a bounded
// excerpt of the offending input kept for diagnostics.
func ParseError(message string, prefix string) *QuarryError {
	return Newf(ErrCodeParse, "%s", message).WithDetail("input_prefix", prefix)
}

// ConversionError creates a field type-conversion error.
func ConversionError(field string, cause error) *QuarryError {
	e := New(ErrCodeConversion, fmt.Sprintf("cannot convert field %q", field), cause)
	return e.WithDetail("field", field)
}

// SchemaMismatchError creates an unknown-field error.
func SchemaMismatchError(field string) *QuarryError {
	e := Newf(ErrCodeSchemaMismatch, "field %q not in schema", field)
	return e.WithDetail("field", field)
}

// PipelineClosedError creates a submission-after-shutdown error.
func PipelineClosedError() *QuarryError {
	return Newf(ErrCodePipelineClosed, "mutation pipeline is closed")
}

// StorageError creates an index storage error.
func StorageError(message string, cause error) *QuarryError {
	return New(ErrCodeStorage, message, cause)
}

// QueryParseError creates a malformed-query error.
func QueryParseError(query string, cause error) *QuarryError {
	e := New(ErrCodeQueryParse, fmt.Sprintf("malformed query %q", query), cause)
	return e.WithDetail("query", query)
}

// IsCode checks whether err is (or wraps) a QuarryError with the given code.
func IsCode(err error, code string) bool {
	for err != nil {
		if qe, ok := err.(*QuarryError); ok && qe.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
