package subprocess

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/mcp-harness-go/internal/errors"
	"github.com/wagiedev/mcp-harness-go/internal/launcher"
)

const (
	// maxScanTokenSize is the maximum size of one stdout line.
	maxScanTokenSize = 16 * 1024 * 1024 // 16MB
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit to prevent unbounded memory usage.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// DefaultGracePeriod is how long Stop waits after each shutdown step.
	DefaultGracePeriod = 2 * time.Second

	// killWait bounds the wait for exit after SIGKILL.
	killWait = 5 * time.Second
)

// Config describes the child process to launch.
type Config struct {
	// Executable is a path or a bare name searched in PATH.
	Executable string

	// Args are passed to the executable verbatim.
	Args []string

	// Env overrides variables of the inherited environment.
	Env map[string]string

	// Stderr, if set, receives every stderr line as it arrives.
	Stderr func(line string)

	// GracePeriod overrides DefaultGracePeriod.
	GracePeriod time.Duration
}

// Process is one child process speaking line-delimited messages on its
// standard streams. It owns the pipes exclusively.
type Process struct {
	log *slog.Logger
	cfg Config

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	lines   chan []byte
	readErr error // written before lines is closed

	stderrMu  sync.Mutex
	stderrBuf strings.Builder

	readers sync.WaitGroup
	exited  chan struct{}
	waitErr error // written before exited is closed

	done chan struct{} // closed when shutdown begins

	mu          sync.Mutex // Protects stdin writes and lifecycle flags
	started     bool
	stdinClosed bool
	stopping    bool

	stopOnce sync.Once
	stopErr  error
}

// New creates a process handle. Nothing is spawned until Start.
func New(log *slog.Logger, cfg Config) *Process {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}

	return &Process{
		log:    log.With("component", "subprocess"),
		cfg:    cfg,
		lines:  make(chan []byte),
		exited: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start resolves the executable and spawns the child.
//
// The context bounds the life of the child: cancelling it kills the process
// group. Returns LaunchError if the executable cannot be found or started.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.ErrAlreadyStarted
	}

	if p.stopping {
		return errors.ErrSessionClosed
	}

	path, err := launcher.NewResolver(p.log).Resolve(p.cfg.Executable)
	if err != nil {
		return err
	}

	//nolint:gosec // G204: executable comes from the launch configuration
	cmd := exec.CommandContext(ctx, path, p.cfg.Args...)
	cmd.Env = launcher.BuildEnvironment(p.cfg.Env)
	setProcAttr(cmd)

	cmd.Cancel = func() error {
		return killProcess(cmd.Process)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.LaunchError{Executable: p.cfg.Executable, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.LaunchError{Executable: p.cfg.Executable, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.LaunchError{Executable: p.cfg.Executable, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		p.log.Error("Failed to start process", "executable", path, "error", err)

		return &errors.LaunchError{Executable: p.cfg.Executable, Err: fmt.Errorf("start process: %w", err)}
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = stdout
	p.stderr = stderr
	p.started = true

	p.log.Info("Process started", "executable", path, "args", p.cfg.Args, "pid", cmd.Process.Pid)

	p.readers.Add(2)

	go p.readStdout()
	go p.readStderr()
	go p.wait()

	return nil
}

// Pid returns the child's process id, or 0 before Start.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

// Lines yields each non-blank stdout line. The channel is closed at EOF or
// once shutdown begins; ReadErr then reports why.
func (p *Process) Lines() <-chan []byte {
	return p.lines
}

// ReadErr returns the stdout read error after Lines is closed. It is nil on
// a clean EOF.
func (p *Process) ReadErr() error {
	return p.readErr
}

// Exited is closed once the child has been reaped.
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

// ExitError returns a ProcessError for a child that exited with a failure
// on its own. It returns nil while the child runs, on success, and after an
// intentional shutdown.
func (p *Process) ExitError() error {
	select {
	case <-p.exited:
	default:
		return nil
	}

	p.mu.Lock()
	stopping := p.stopping
	p.mu.Unlock()

	if p.waitErr == nil || stopping {
		return nil
	}

	exitCode := -1
	if exitErr, ok := stderrors.AsType[*exec.ExitError](p.waitErr); ok {
		exitCode = exitErr.ExitCode()
	}

	return &errors.ProcessError{
		ExitCode: exitCode,
		Stderr:   cleanStderr(p.Stderr()),
		Err:      p.waitErr,
	}
}

// Stderr returns the stderr captured so far.
func (p *Process) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return p.stderrBuf.String()
}

// WriteLine writes data followed by a newline to the child's stdin.
//
// Safe for concurrent use. If the context is cancelled during a blocked
// write, stdin is closed to unblock it and later writes fail.
// Returns StreamClosedError when stdin is no longer writable.
func (p *Process) WriteLine(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return errors.ErrNotStarted
	}

	if p.stdinClosed {
		return &errors.StreamClosedError{Stream: "stdin", Stderr: p.Stderr(), Err: os.ErrClosed}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Copy so the caller's backing array is never mutated.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	p.log.Debug("Writing line to process", "data_len", len(data))

	done := make(chan error, 1)

	go func() {
		_, err := p.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			p.log.Debug("Write to stdin failed", "error", err)

			return &errors.StreamClosedError{Stream: "stdin", Stderr: p.Stderr(), Err: err}
		}

		return nil

	case <-ctx.Done():
		p.log.Debug("Context cancelled during write, closing stdin")

		_ = p.stdin.Close()
		p.stdinClosed = true

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			p.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

// Stop shuts the child down: close stdin, then SIGTERM, then SIGKILL, each
// step waiting up to the grace period for the child to exit. Stop is
// idempotent; later calls return the first result.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.shutdown(false)
	})

	return p.stopErr
}

// Kill terminates the child immediately. It shares Stop's once-only
// semantics, so a Kill followed by Stop is a no-op.
func (p *Process) Kill() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.shutdown(true)
	})

	return p.stopErr
}

func (p *Process) shutdown(force bool) error {
	p.mu.Lock()
	p.stopping = true
	started := p.started

	if started && !p.stdinClosed {
		_ = p.stdin.Close()
		p.stdinClosed = true
	}

	p.mu.Unlock()

	close(p.done)

	if !started {
		return nil
	}

	pid := p.cmd.Process.Pid

	if !force {
		if p.awaitExit(p.cfg.GracePeriod) {
			p.log.Debug("Process exited after stdin close", "pid", pid)

			return nil
		}

		p.log.Debug("Sending SIGTERM", "pid", pid)

		if err := terminateProcess(p.cmd.Process); err != nil {
			p.log.Debug("Terminate signal failed", "pid", pid, "error", err)
		}

		if p.awaitExit(p.cfg.GracePeriod) {
			return nil
		}

		p.log.Warn("Process did not exit within grace period, killing", "pid", pid, "grace_period", p.cfg.GracePeriod)
	}

	if err := killProcess(p.cmd.Process); err != nil {
		return fmt.Errorf("kill process (pid %d): %w", pid, err)
	}

	if !p.awaitExit(killWait) {
		p.log.Warn("Process not reaped after kill", "pid", pid)
	}

	return nil
}

func (p *Process) awaitExit(d time.Duration) bool {
	select {
	case <-p.exited:
		return true
	case <-time.After(d):
		return false
	}
}

func (p *Process) readStdout() {
	defer p.readers.Done()
	defer close(p.lines)

	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	count := 0

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		count++
		p.log.Debug("Received line from process", "line_count", count, "data_len", len(line))

		select {
		case p.lines <- bytes.Clone(line):
		case <-p.done:
			return
		}
	}

	if err := scanner.Err(); err != nil {
		p.log.Debug("Stdout scanner error", "error", err)

		p.readErr = err
	}
}

func (p *Process) readStderr() {
	defer p.readers.Done()

	scanner := bufio.NewScanner(p.stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()

		p.stderrMu.Lock()

		if p.stderrBuf.Len() < maxStderrBufferSize {
			if p.stderrBuf.Len() > 0 {
				p.stderrBuf.WriteString("\n")
			}

			p.stderrBuf.WriteString(line)
		}

		p.stderrMu.Unlock()

		if p.cfg.Stderr != nil {
			p.cfg.Stderr(line)
		}
	}

	if err := scanner.Err(); err != nil {
		p.log.Debug("Stderr scanner error", "error", err)
	}
}

// wait reaps the child once both readers have drained their pipes.
// See: https://pkg.go.dev/os/exec#Cmd.StdoutPipe
func (p *Process) wait() {
	p.readers.Wait()

	err := p.cmd.Wait()
	p.waitErr = err

	close(p.exited)

	if err != nil {
		p.log.Debug("Process exited", "pid", p.cmd.Process.Pid, "error", err)
	} else {
		p.log.Info("Process exited successfully", "pid", p.cmd.Process.Pid)
	}
}
