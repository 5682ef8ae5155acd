package mcpharness

import (
	"log/slog"
	"time"

	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
)

// Option configures Options using the functional options pattern.
// This is the option type for harnesses, script runs and comparisons.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = NopLogger()
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithStderr sets a callback invoked for each line the child writes to
// stderr. The output is also captured and available from Stderr.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// WithNotificationHandler observes notifications sent by the child while a
// response is awaited.
func WithNotificationHandler(handler func(*Request)) Option {
	return func(o *Options) {
		o.OnNotification = handler
	}
}

// ===== Process Lifecycle =====

// WithGracePeriod sets how long Stop waits after closing stdin, and again
// after the termination signal, before killing the child.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		o.GracePeriod = d
	}
}

// ===== Protocol =====

// WithIDGenerator sets the generator of request ids used by Call.
// Defaults to sequential integers starting at 1.
func WithIDGenerator(ids jsonrpc.IDGenerator) Option {
	return func(o *Options) {
		o.IDGenerator = ids
	}
}

// WithClientInfo sets the client identity declared in initialize.
func WithClientInfo(name, version string) Option {
	return func(o *Options) {
		o.ClientInfo = &Implementation{Name: name, Version: version}
	}
}

// WithProtocolVersion sets the protocol version declared in initialize.
// Defaults to "2024-11-05".
func WithProtocolVersion(version string) Option {
	return func(o *Options) {
		o.ProtocolVersion = version
	}
}

// ===== Comparison =====

// WithSequential runs the two sides of a comparison one after the other
// instead of concurrently.
func WithSequential() Option {
	return func(o *Options) {
		o.Sequential = true
	}
}
