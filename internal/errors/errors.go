package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// HarnessError is the base interface for all harness errors.
type HarnessError interface {
	error
	IsHarnessError() bool
}

// Compile-time verification that all error types implement HarnessError.
var (
	_ HarnessError = (*LaunchError)(nil)
	_ HarnessError = (*StreamClosedError)(nil)
	_ HarnessError = (*TimeoutError)(nil)
	_ HarnessError = (*ProtocolError)(nil)
	_ HarnessError = (*RemoteError)(nil)
	_ HarnessError = (*ProcessError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotStarted indicates the session has not been started.
	ErrNotStarted = errors.New("session not started")

	// ErrAlreadyStarted indicates Start was called on a running session.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrSessionClosed indicates the session was stopped and cannot be reused.
	ErrSessionClosed = errors.New("session closed: sessions are single-use, create a new one")

	// ErrDuplicateID indicates a request id is already awaiting a response.
	ErrDuplicateID = errors.New("duplicate request id")

	// ErrTimeout is matched by every TimeoutError via errors.Is.
	ErrTimeout = errors.New("timeout waiting for response")
)

// LaunchError indicates the executable could not be found or started.
type LaunchError struct {
	Executable    string
	SearchedPaths []string
	Err           error
}

func (e *LaunchError) Error() string {
	if len(e.SearchedPaths) > 0 {
		return fmt.Sprintf("launch %q: not found in %v", e.Executable, e.SearchedPaths)
	}

	return fmt.Sprintf("launch %q: %v", e.Executable, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsHarnessError implements HarnessError.
func (e *LaunchError) IsHarnessError() bool { return true }

// StreamClosedError indicates one of the child's standard streams is no
// longer usable. Stderr holds whatever the child wrote to its error stream.
type StreamClosedError struct {
	Stream string
	Stderr string
	Err    error
}

func (e *StreamClosedError) Error() string {
	msg := fmt.Sprintf("%s closed", e.Stream)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Stderr != "" {
		msg += " (stderr: " + lastLine(e.Stderr) + ")"
	}

	return msg
}

func (e *StreamClosedError) Unwrap() error {
	return e.Err
}

// IsHarnessError implements HarnessError.
func (e *StreamClosedError) IsHarnessError() bool { return true }

// TimeoutError indicates no response line arrived within the bound.
type TimeoutError struct {
	Method  string
	ID      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("timeout after %s waiting for response", e.Timeout)
	}

	return fmt.Sprintf("timeout after %s waiting for %s response (id %s)", e.Timeout, e.Method, e.ID)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// IsHarnessError implements HarnessError.
func (e *TimeoutError) IsHarnessError() bool { return true }

// ProtocolError indicates a line that is not valid JSON or violates JSON-RPC 2.0.
// Raw preserves the offending line.
type ProtocolError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Reason, e.Err)
	}

	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsHarnessError implements HarnessError.
func (e *ProtocolError) IsHarnessError() bool { return true }

// RemoteError is a well-formed JSON-RPC error object returned by the child.
type RemoteError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *RemoteError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: remote error %d: %s", e.Method, e.Code, e.Message)
}

// IsHarnessError implements HarnessError.
func (e *RemoteError) IsHarnessError() bool { return true }

// ProcessError indicates the child process exited with a failure.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsHarnessError implements HarnessError.
func (e *ProcessError) IsHarnessError() bool { return true }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}

	return s
}
