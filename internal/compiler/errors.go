package compiler

import (
	"errors"
	"fmt"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidJSON        = "E201" // body is not a JSON object
	ErrUnknownTable       = "E202" // table missing or not registered
	ErrUnsupportedValue   = "E203" // filter value has an unusable JSON kind
	ErrMalformedTimestamp = "E204" // from/to is not ISO-8601
)

// Client-facing messages.
const (
	msgInvalidJSON  = "Invalid JSON body"
	msgUnknownTable = "Missing or unsupported table"
)

// ValidationError reports a request the compiler refuses to compile.
// Message is safe to return to the caller verbatim.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsMalformedTimestamp reports whether err is a timestamp parse failure.
func IsMalformedTimestamp(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrMalformedTimestamp
	}
	return false
}

// IsUnknownTable reports whether err is a missing or unregistered table.
func IsUnknownTable(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrUnknownTable
	}
	return false
}

func newInvalidJSON(err error) *ValidationError {
	return &ValidationError{Message: msgInvalidJSON, Code: ErrInvalidJSON, Err: err}
}

func newUnknownTable() *ValidationError {
	return &ValidationError{Field: "table", Message: msgUnknownTable, Code: ErrUnknownTable}
}

func newUnsupportedValue(field, kind string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Unsupported value for %s: %s", field, kind),
		Code:    ErrUnsupportedValue,
	}
}

func newMalformedTimestamp(field string, value any, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("Invalid datetime format: %v", value),
		Code:    ErrMalformedTimestamp,
		Err:     err,
	}
}
