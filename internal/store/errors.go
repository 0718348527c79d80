package store

import (
	"errors"
	"fmt"
	"strings"
)

// msgMissingSettings matches the wording operators already grep for.
const msgMissingSettings = "Missing required environment variables for Fabric SQL connection"

// ConnectivityError reports that no usable handle could be obtained,
// either because settings are absent or because the handshake failed.
type ConnectivityError struct {
	Missing []string // setting names, sorted; empty for handshake failures
	Err     error
}

func (e *ConnectivityError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: %s", msgMissingSettings, strings.Join(e.Missing, ", "))
	}
	return e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ExecutionError wraps any failure while connecting, running a statement
// or reading its rows. The gateway never retries.
type ExecutionError struct {
	Op  string // "connect", "query" or "scan"
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsConnectivityError reports whether err is a connection failure.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
