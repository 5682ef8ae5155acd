package mcpharness

import "github.com/wagiedev/mcp-harness-go/internal/errors"

// Re-export error types from internal package

// LaunchError indicates the executable could not be found or started.
type LaunchError = errors.LaunchError

// StreamClosedError indicates the child's stdin or stdout is no longer usable.
type StreamClosedError = errors.StreamClosedError

// TimeoutError indicates no response arrived within the bound.
type TimeoutError = errors.TimeoutError

// ProtocolError indicates a line that is not valid JSON-RPC 2.0.
type ProtocolError = errors.ProtocolError

// RemoteError is a JSON-RPC error object returned by the child.
type RemoteError = errors.RemoteError

// ProcessError indicates the child exited with a failure.
type ProcessError = errors.ProcessError

// HarnessError is the base interface for all harness errors.
type HarnessError = errors.HarnessError

// Re-export sentinel errors from internal package.
var (
	// ErrNotStarted indicates the harness has not been started.
	ErrNotStarted = errors.ErrNotStarted

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrSessionClosed indicates the harness was stopped and cannot be reused.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrDuplicateID indicates a request id is already awaiting a response.
	ErrDuplicateID = errors.ErrDuplicateID

	// ErrTimeout is matched by every TimeoutError.
	ErrTimeout = errors.ErrTimeout
)
