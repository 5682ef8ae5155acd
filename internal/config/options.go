package config

import (
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
)

// Launch is the explicit configuration of one child process.
type Launch struct {
	// Name labels the launch in logs and reports. It has no other effect.
	Name string

	// Executable is a path, or a bare name searched in PATH.
	Executable string

	// Args are passed to the executable verbatim.
	Args []string

	// Env overrides variables of the inherited environment.
	Env map[string]string

	// Timeout bounds each wait for a response. Zero means 5s.
	Timeout time.Duration
}

// Label returns Name, or the executable when no name is set.
func (l Launch) Label() string {
	if l.Name != "" {
		return l.Name
	}

	return l.Executable
}

// Options configures the behavior of a harness.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Stderr is a callback function for each line of the child's stderr.
	Stderr func(string)

	// OnNotification observes notifications sent by the child.
	OnNotification func(*jsonrpc.Request)

	// GracePeriod is how long Stop waits after closing stdin and again after
	// SIGTERM. Zero means 2s.
	GracePeriod time.Duration

	// IDGenerator produces request ids for Call. Nil means sequential
	// integers starting at 1.
	IDGenerator jsonrpc.IDGenerator

	// ClientInfo identifies the harness in initialize.
	ClientInfo *mcp.Implementation

	// ProtocolVersion is declared in initialize. Empty means "2024-11-05".
	ProtocolVersion string

	// Sequential runs the two sides of a comparison one after the other
	// instead of concurrently.
	Sequential bool
}
