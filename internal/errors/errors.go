package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// InvalidDateError means a caller supplied date could not be normalized.
// Raw keeps the original input so it can be echoed back to the client.
type InvalidDateError struct {
	Raw   string
	Cause error
}

func (e *InvalidDateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid date %q: %v", e.Raw, e.Cause)
	}
	return fmt.Sprintf("invalid date %q", e.Raw)
}

func (e *InvalidDateError) Unwrap() error {
	return e.Cause
}

func NewInvalidDateError(raw string, cause error) *InvalidDateError {
	return &InvalidDateError{
		Raw:   raw,
		Cause: cause,
	}
}

func IsInvalidDateError(err error) (*InvalidDateError, bool) {
	var ide *InvalidDateError
	if stderrors.As(err, &ide) {
		return ide, true
	}
	return nil, false
}

// SourceUnavailableError wraps a failed read from a reservation backend.
// Callers may retry with backoff.
type SourceUnavailableError struct {
	Source string
	Cause  error
}

func (e *SourceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reservation source %s unavailable: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("reservation source %s unavailable", e.Source)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Cause
}

func NewSourceUnavailableError(source string, cause error) *SourceUnavailableError {
	return &SourceUnavailableError{
		Source: source,
		Cause:  cause,
	}
}

func IsSourceUnavailableError(err error) (*SourceUnavailableError, bool) {
	var sue *SourceUnavailableError
	if stderrors.As(err, &sue) {
		return sue, true
	}
	return nil, false
}

// SchemaMismatchError means the backend no longer has the expected shape,
// e.g. a spreadsheet header was renamed or a table column dropped.
type SchemaMismatchError struct {
	Source string
	Column string
	Cause  error
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("reservation source %s: expected column %q not found", e.Source, e.Column)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Cause
}

func NewSchemaMismatchError(source, column string, cause error) *SchemaMismatchError {
	return &SchemaMismatchError{
		Source: source,
		Column: column,
		Cause:  cause,
	}
}

func IsSchemaMismatchError(err error) (*SchemaMismatchError, bool) {
	var sme *SchemaMismatchError
	if stderrors.As(err, &sme) {
		return sme, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
