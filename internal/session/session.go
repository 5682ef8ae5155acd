package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/mcp-harness-go/internal/errors"
	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
	"github.com/wagiedev/mcp-harness-go/internal/mcp"
	"github.com/wagiedev/mcp-harness-go/internal/subprocess"
)

// DefaultTimeout bounds each wait for a response line.
const DefaultTimeout = 5 * time.Second

// exitSettle bounds how long a stdout EOF waits for the child to be reaped
// so that its final stderr is captured.
const exitSettle = 500 * time.Millisecond

// Config configures a Session.
type Config struct {
	// Process describes the child to launch.
	Process subprocess.Config

	// Timeout is the default response timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// IDs generates request ids for Call. Nil means jsonrpc.Sequential().
	IDs jsonrpc.IDGenerator

	// OnNotification, if set, observes every notification the child sends.
	OnNotification func(*jsonrpc.Request)

	// ProtocolVersion is declared by Initialize. Empty means
	// mcp.DefaultProtocolVersion.
	ProtocolVersion string

	// ClientInfo identifies the harness in Initialize.
	ClientInfo *sdkmcp.Implementation
}

// RequestHandler answers a request the child sends. The returned value is
// marshaled as the result.
type RequestHandler func(ctx context.Context, req *jsonrpc.Request) (any, error)

// pendingRequest tracks a sent request awaiting its response.
type pendingRequest struct {
	id     jsonrpc.ID
	method string
	sent   time.Time

	// abandoned is set when the caller stopped waiting. Its late response
	// is dropped.
	abandoned bool
}

// Session is one child process lifetime speaking JSON-RPC over stdio.
type Session struct {
	log  *slog.Logger
	id   string
	cfg  Config
	proc *subprocess.Process

	callMu sync.Mutex // One Call at a time
	readMu sync.Mutex // One reader of stdout at a time

	mu       sync.Mutex
	started  bool
	closed   bool
	pending  map[string]*pendingRequest // keyed by ID.String()
	received []*jsonrpc.Request

	handlersMu sync.RWMutex
	handlers   map[string]RequestHandler
}

// New creates a session. The child is not spawned until Start.
func New(log *slog.Logger, cfg Config) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.IDs == nil {
		cfg.IDs = jsonrpc.Sequential()
	}

	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = mcp.DefaultProtocolVersion
	}

	if cfg.ClientInfo == nil {
		cfg.ClientInfo = mcp.DefaultClientInfo()
	}

	id := ulid.Make().String()
	log = log.With("component", "session", "session_id", id)

	s := &Session{
		log:      log,
		id:       id,
		cfg:      cfg,
		proc:     subprocess.New(log, cfg.Process),
		pending:  make(map[string]*pendingRequest, 4),
		handlers: make(map[string]RequestHandler, 4),
	}

	s.Handle(mcp.MethodPing, func(context.Context, *jsonrpc.Request) (any, error) {
		return struct{}{}, nil
	})

	return s
}

// ID returns the session's ULID, used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// Timeout returns the default response timeout.
func (s *Session) Timeout() time.Duration {
	return s.cfg.Timeout
}

// Handle registers a handler for requests the child sends with method.
// Registering the same method twice replaces the previous handler.
func (s *Session) Handle(method string, handler RequestHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()

	s.handlers[method] = handler
}

// Start spawns the child. Returns LaunchError if it cannot be started.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrSessionClosed
	}

	if s.started {
		return errors.ErrAlreadyStarted
	}

	s.log.Debug("Starting session", "executable", s.cfg.Process.Executable)

	if err := s.proc.Start(ctx); err != nil {
		return err
	}

	s.started = true

	s.log.Info("Session started", "pid", s.proc.Pid())

	return nil
}

// SendRequest writes one request line with the given id.
//
// Returns ErrDuplicateID if id is still awaiting a response, and
// StreamClosedError if stdin is no longer writable.
func (s *Session) SendRequest(ctx context.Context, method string, params any, id jsonrpc.ID) error {
	if id.IsZero() {
		return fmt.Errorf("send %s: request id is required", method)
	}

	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}

	key := id.String()

	s.mu.Lock()

	if err := s.checkUsable(); err != nil {
		s.mu.Unlock()

		return err
	}

	if _, exists := s.pending[key]; exists {
		s.mu.Unlock()

		return fmt.Errorf("%w: %s", errors.ErrDuplicateID, key)
	}

	s.pending[key] = &pendingRequest{id: id, method: method, sent: time.Now()}
	s.mu.Unlock()

	if err := s.write(ctx, req); err != nil {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()

		return err
	}

	s.log.Debug("Request sent", "method", method, "id", key)

	return nil
}

// SendNotification writes one notification line. No response is expected.
func (s *Session) SendNotification(ctx context.Context, method string, params any) error {
	req, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("build %s notification: %w", method, err)
	}

	s.mu.Lock()
	err = s.checkUsable()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	if err := s.write(ctx, req); err != nil {
		return err
	}

	s.log.Debug("Notification sent", "method", method)

	return nil
}

// ReceiveResponse reads stdout until a response to a pending request
// arrives. Notifications and requests from the child are handled and
// skipped on the way.
//
// A timeout of zero uses the configured default. When it expires the child
// is killed and TimeoutError returned; the session is then closed. A line
// that is not a valid JSON-RPC message yields ProtocolError, and stdout
// reaching EOF yields StreamClosedError.
func (s *Session) ReceiveResponse(ctx context.Context, timeout time.Duration) (*jsonrpc.Response, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	s.mu.Lock()
	err := s.checkUsable()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = s.cfg.Timeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case line, ok := <-s.proc.Lines():
			if !ok {
				return nil, s.streamClosed()
			}

			resp, err := s.dispatch(ctx, line)
			if err != nil {
				return nil, err
			}

			if resp != nil {
				return resp, nil
			}

		case <-timer.C:
			return nil, s.timeout(timeout)

		case <-ctx.Done():
			s.log.Debug("Receive cancelled")

			return nil, ctx.Err()
		}
	}
}

// Call sends method with a fresh id and waits for its response.
//
// A response carrying a JSON-RPC error object is returned together with a
// RemoteError. If ctx ends first the request is abandoned and its late
// response is skipped by later reads.
func (s *Session) Call(ctx context.Context, method string, params any, timeout time.Duration) (*jsonrpc.Response, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	id := s.cfg.IDs.Next()

	if err := s.SendRequest(ctx, method, params, id); err != nil {
		return nil, err
	}

	resp, err := s.ReceiveResponse(ctx, timeout)
	if err != nil {
		if ctx.Err() != nil {
			s.abandon(id)
		}

		return nil, err
	}

	if resp.ID != id {
		return nil, &errors.ProtocolError{
			Reason: fmt.Sprintf("response id %s does not match request id %s", resp.ID, id),
		}
	}

	if err := resp.RemoteError(method); err != nil {
		s.log.Debug("Remote error", "method", method, "error", err)

		return resp, err
	}

	return resp, nil
}

// Notifications returns the notifications the child has sent so far.
func (s *Session) Notifications() []*jsonrpc.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.received)
}

// Stderr returns the child's captured stderr.
func (s *Session) Stderr() string {
	return s.proc.Stderr()
}

// Pid returns the child's process id, or 0 before Start.
func (s *Session) Pid() int {
	return s.proc.Pid()
}

// Stop closes the session and shuts the child down gracefully. It is safe to
// call more than once.
func (s *Session) Stop() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.log.Debug("Stopping session")

	err := s.proc.Stop()

	s.log.Info("Session stopped")

	return err
}

// checkUsable reports why the session cannot carry traffic. Callers hold mu.
func (s *Session) checkUsable() error {
	if s.closed {
		return errors.ErrSessionClosed
	}

	if !s.started {
		return errors.ErrNotStarted
	}

	return nil
}

func (s *Session) write(ctx context.Context, msg any) error {
	data, err := jsonrpc.EncodeLine(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	return s.proc.WriteLine(ctx, data)
}

// dispatch handles one stdout line. It returns a response only when the line
// answers a pending request.
func (s *Session) dispatch(ctx context.Context, line []byte) (*jsonrpc.Response, error) {
	msg, err := jsonrpc.DecodeLine(line)
	if err != nil {
		s.log.Debug("Undecodable line from child", "error", err)

		return nil, err
	}

	if req := msg.Request; req != nil {
		if req.IsNotification() {
			s.recordNotification(req)
		} else {
			s.answer(ctx, req)
		}

		return nil, nil
	}

	return s.claim(msg.Response, line)
}

// claim removes the pending request a response answers.
func (s *Session) claim(resp *jsonrpc.Response, line []byte) (*jsonrpc.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := resp.ID.String()

	// A null id answers a request the child could not parse; attribute it
	// when only one request is outstanding.
	if resp.ID.IsZero() && len(s.pending) == 1 {
		for k, p := range s.pending {
			key = k
			resp.ID = p.id
		}
	}

	pending, exists := s.pending[key]
	if !exists {
		s.log.Warn("Response for unknown request id", "id", key)

		return nil, &errors.ProtocolError{
			Reason: fmt.Sprintf("response for unknown id %s", key),
			Raw:    string(line),
		}
	}

	delete(s.pending, key)

	if pending.abandoned {
		s.log.Debug("Dropping response to abandoned request", "method", pending.method, "id", key)

		return nil, nil
	}

	s.log.Debug("Response received", "method", pending.method, "id", key, "elapsed", time.Since(pending.sent))

	return resp, nil
}

// abandon marks id as no longer awaited.
func (s *Session) abandon(id jsonrpc.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.pending[id.String()]; exists {
		p.abandoned = true

		s.log.Debug("Request abandoned", "method", p.method, "id", id.String())
	}
}

func (s *Session) recordNotification(req *jsonrpc.Request) {
	s.log.Debug("Notification from child", "method", req.Method)

	s.mu.Lock()
	s.received = append(s.received, req)
	s.mu.Unlock()

	if s.cfg.OnNotification != nil {
		s.cfg.OnNotification(req)
	}
}

// answer replies to a request the child sent.
func (s *Session) answer(ctx context.Context, req *jsonrpc.Request) {
	s.log.Debug("Request from child", "method", req.Method, "id", req.ID.String())

	s.handlersMu.RLock()
	handler, exists := s.handlers[req.Method]
	s.handlersMu.RUnlock()

	resp := &jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: *req.ID}

	if !exists {
		s.log.Debug("No handler for request from child", "method", req.Method)

		resp.Error = &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: "method not found: " + req.Method}
	} else if result, err := handler(ctx, req); err != nil {
		resp.Error = &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	} else if resp.Result, err = jsonrpc.MarshalResult(result); err != nil {
		resp.Error = &jsonrpc.Error{Code: jsonrpc.CodeInternalError, Message: err.Error()}
	}

	if err := s.write(ctx, resp); err != nil {
		s.log.Warn("Failed to answer request from child", "method", req.Method, "error", err)
	}
}

func (s *Session) streamClosed() error {
	// Let the stderr reader drain so the error carries the child's last words.
	select {
	case <-s.proc.Exited():
	case <-time.After(exitSettle):
	}

	readErr := s.proc.ReadErr()
	if readErr == nil {
		readErr = io.EOF
	}

	if exitErr := s.proc.ExitError(); exitErr != nil {
		readErr = stderrors.Join(readErr, exitErr)
	}

	s.log.Debug("Stdout closed", "error", readErr)

	return &errors.StreamClosedError{Stream: "stdout", Stderr: s.proc.Stderr(), Err: readErr}
}

// timeout kills the child and closes the session.
func (s *Session) timeout(timeout time.Duration) error {
	s.mu.Lock()

	var oldest *pendingRequest

	for _, p := range s.pending {
		if p.abandoned {
			continue
		}

		if oldest == nil || p.sent.Before(oldest.sent) {
			oldest = p
		}
	}

	s.closed = true
	s.mu.Unlock()

	timeoutErr := &errors.TimeoutError{Timeout: timeout}
	if oldest != nil {
		timeoutErr.Method = oldest.method
		timeoutErr.ID = oldest.id.String()
	}

	s.log.Warn("Response timed out, terminating child", "method", timeoutErr.Method, "id", timeoutErr.ID, "timeout", timeout)

	if err := s.proc.Kill(); err != nil {
		s.log.Warn("Failed to terminate child", "error", err)
	}

	return timeoutErr
}
