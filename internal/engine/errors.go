package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/chartquery/internal/compiler"
	"github.com/roach88/chartquery/internal/store"
)

// QueryError is the single error type returned by Engine.
//
// Message is the plain-text reason shown to the caller. Err keeps the
// underlying cause for logs and errors.Is/As.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is safe to return verbatim.
	Message string

	// Table is the requested table, when known.
	Table string

	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeValidation covers bad JSON, unsupported values and unknown tables.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeMalformedTimestamp indicates from/to could not be parsed.
	ErrCodeMalformedTimestamp ErrorCode = "MALFORMED_TIMESTAMP"

	// ErrCodeExecution indicates a connection or statement failure.
	ErrCodeExecution ErrorCode = "EXECUTION"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err should be answered as a client error.
// Malformed timestamps count as validation errors.
func IsValidationError(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeValidation || qe.Code == ErrCodeMalformedTimestamp
	}
	return false
}

// IsMalformedTimestamp reports whether err is a from/to parse failure.
func IsMalformedTimestamp(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeMalformedTimestamp
	}
	return false
}

// IsExecutionError reports whether err is a connection or statement failure.
func IsExecutionError(err error) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == ErrCodeExecution
	}
	return false
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Message
	}
	return err.Error()
}

// classifyCompileError maps a compiler error onto the taxonomy.
func classifyCompileError(table string, err error) *QueryError {
	var ve *compiler.ValidationError
	if !errors.As(err, &ve) {
		return newExecutionError(table, err)
	}
	code := ErrCodeValidation
	if compiler.IsMalformedTimestamp(err) {
		code = ErrCodeMalformedTimestamp
	}
	// an unresolved name is caller input, not a table
	if compiler.IsUnknownTable(err) {
		table = ""
	}
	return &QueryError{Code: code, Message: ve.Message, Table: table, Err: err}
}

// newExecutionError wraps a gateway or builder failure. The message carries
// the driver's own text.
func newExecutionError(table string, err error) *QueryError {
	cause := err
	var ee *store.ExecutionError
	if errors.As(err, &ee) {
		cause = ee.Err
	}
	return &QueryError{
		Code:    ErrCodeExecution,
		Message: fmt.Sprintf("Query failed: %v", cause),
		Table:   table,
		Err:     err,
	}
}

func newUnsupportedTable(table string) *QueryError {
	return &QueryError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("Unsupported table: %s", table),
		Table:   table,
	}
}
