package mcpharness

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wagiedev/mcp-harness-go/internal/session"
	"github.com/wagiedev/mcp-harness-go/internal/subprocess"
)

// Harness drives one child process speaking JSON-RPC 2.0 over its standard
// streams, one JSON document per line.
//
// Lifecycle: harnesses are single-use. After Stop, or after a timeout, create
// a new one with New.
//
// Example usage:
//
//	h := mcpharness.New(mcpharness.Config{
//	    Executable: "node",
//	    Args:       []string{"src/index.js", "mcp"},
//	}, mcpharness.WithLogger(slog.Default()))
//	defer h.Stop()
//
//	if err := h.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := h.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := h.CallTool(ctx, "system_status", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(mcpharness.ResultText(result))
type Harness interface {
	// Start launches the child. Returns LaunchError when the executable
	// cannot be found or started, before any protocol traffic.
	Start(ctx context.Context) error

	// SendRequest writes one request with the given id. Returns
	// StreamClosedError if stdin is closed and ErrDuplicateID if id is still
	// awaiting its response.
	SendRequest(ctx context.Context, method string, params any, id ID) error

	// SendNotification writes one request without an id.
	SendNotification(ctx context.Context, method string, params any) error

	// ReceiveResponse returns the next response line. A zero timeout uses
	// Config.Timeout. On timeout the child is terminated and TimeoutError
	// returned. Notifications and requests from the child are handled on
	// the way.
	ReceiveResponse(ctx context.Context, timeout time.Duration) (*Response, error)

	// Call sends method with a fresh id and waits for its response. A
	// response carrying an error object is returned with a RemoteError.
	Call(ctx context.Context, method string, params any, timeout time.Duration) (*Response, error)

	// Initialize sends initialize then notifications/initialized.
	Initialize(ctx context.Context) (*InitializeResult, error)

	// ListTools enumerates the child's tools.
	ListTools(ctx context.Context) ([]ToolDescriptor, error)

	// CallTool invokes a tool with args forwarded verbatim. Nil args send {}.
	CallTool(ctx context.Context, name string, args json.RawMessage) (*CallToolResult, error)

	// Handle registers a handler for requests the child sends.
	// ping is answered by default.
	Handle(method string, handler RequestHandler)

	// Notifications returns the notifications the child has sent so far.
	Notifications() []*Request

	// Stderr returns everything the child has written to stderr.
	Stderr() string

	// Pid returns the child's process id, or 0 before Start.
	Pid() int

	// SessionID returns the unique id used to correlate log lines.
	SessionID() string

	// Stop closes stdin, signals the child to terminate and kills it after
	// the grace period. Safe to call multiple times.
	Stop() error
}

// harness adapts the internal session to the public interface.
type harness struct {
	impl *session.Session
}

// Compile-time check that *harness implements the Harness interface.
var _ Harness = (*harness)(nil)

// New creates a harness for cfg. The child is not launched until Start.
func New(cfg Config, opts ...Option) Harness {
	options := applyOptions(opts)

	return &harness{impl: session.New(options.Logger, sessionConfig(cfg, options))}
}

func sessionConfig(cfg Config, options *Options) session.Config {
	return session.Config{
		Process: subprocess.Config{
			Executable:  cfg.Executable,
			Args:        cfg.Args,
			Env:         cfg.Env,
			Stderr:      options.Stderr,
			GracePeriod: options.GracePeriod,
		},
		Timeout:         cfg.Timeout,
		IDs:             options.IDGenerator,
		OnNotification:  options.OnNotification,
		ProtocolVersion: options.ProtocolVersion,
		ClientInfo:      options.ClientInfo,
	}
}

func (h *harness) Start(ctx context.Context) error {
	return h.impl.Start(ctx)
}

func (h *harness) SendRequest(ctx context.Context, method string, params any, id ID) error {
	return h.impl.SendRequest(ctx, method, params, id)
}

func (h *harness) SendNotification(ctx context.Context, method string, params any) error {
	return h.impl.SendNotification(ctx, method, params)
}

func (h *harness) ReceiveResponse(ctx context.Context, timeout time.Duration) (*Response, error) {
	return h.impl.ReceiveResponse(ctx, timeout)
}

func (h *harness) Call(ctx context.Context, method string, params any, timeout time.Duration) (*Response, error) {
	return h.impl.Call(ctx, method, params, timeout)
}

func (h *harness) Initialize(ctx context.Context) (*InitializeResult, error) {
	return h.impl.Initialize(ctx)
}

func (h *harness) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	return h.impl.ListTools(ctx)
}

func (h *harness) CallTool(ctx context.Context, name string, args json.RawMessage) (*CallToolResult, error) {
	return h.impl.CallTool(ctx, name, args)
}

func (h *harness) Handle(method string, handler RequestHandler) {
	h.impl.Handle(method, handler)
}

func (h *harness) Notifications() []*Request {
	return h.impl.Notifications()
}

func (h *harness) Stderr() string {
	return h.impl.Stderr()
}

func (h *harness) Pid() int {
	return h.impl.Pid()
}

func (h *harness) SessionID() string {
	return h.impl.ID()
}

func (h *harness) Stop() error {
	return h.impl.Stop()
}
