package compare

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/wagiedev/mcp-harness-go/internal/config"
	"github.com/wagiedev/mcp-harness-go/internal/errors"
	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
	"github.com/wagiedev/mcp-harness-go/internal/session"
	"github.com/wagiedev/mcp-harness-go/internal/subprocess"
)

// Status is the outcome of one step.
type Status string

const (
	// StatusOK means the step got a result, or a notification was sent.
	StatusOK Status = "ok"
	// StatusRemoteError means the child answered with a JSON-RPC error object.
	StatusRemoteError Status = "remote_error"
	// StatusFailed means the step got no response.
	StatusFailed Status = "failed"
	// StatusSkipped means an earlier step failed.
	StatusSkipped Status = "skipped"
)

// StepResult is the outcome of one step on one session.
type StepResult struct {
	Step     Step
	Status   Status
	Response *jsonrpc.Response
	Err      error
	Duration time.Duration
}

// Answered reports whether the child produced a response for the step.
func (r StepResult) Answered() bool {
	return r.Response != nil
}

// Payload returns the comparable part of the response:
// {"result": ...} or {"error": ...}. It is nil without a response.
func (r StepResult) Payload() json.RawMessage {
	if r.Response == nil {
		return nil
	}

	var (
		data []byte
		err  error
	)

	if r.Response.Error != nil {
		data, err = json.Marshal(map[string]any{"error": r.Response.Error})
	} else {
		data, err = json.Marshal(map[string]json.RawMessage{"result": r.Response.Result})
	}

	if err != nil {
		return nil
	}

	return data
}

// Run is the outcome of a script on one launch.
type Run struct {
	Label string
	Steps []StepResult

	// Err is the error that ended the run: a launch failure or the first
	// failed step. Nil when every step got a response.
	Err error

	// Stderr is everything the child wrote to stderr.
	Stderr   string
	Duration time.Duration
}

// OK reports whether every step got a response.
func (r *Run) OK() bool {
	return r.Err == nil
}

// Runner executes scripts.
type Runner struct {
	log  *slog.Logger
	opts *config.Options
}

// NewRunner creates a runner. opts may be nil.
func NewRunner(log *slog.Logger, opts *config.Options) *Runner {
	if opts == nil {
		opts = &config.Options{}
	}

	return &Runner{
		log:  log.With("component", "compare"),
		opts: opts,
	}
}

// RunScript executes script on a fresh session for launch. It never returns
// an error: failures are recorded in the Run.
func (r *Runner) RunScript(ctx context.Context, launch config.Launch, script Script) *Run {
	start := time.Now()
	label := launch.Label()
	log := r.log.With("target", label)

	run := &Run{Label: label, Steps: make([]StepResult, 0, len(script))}

	s := session.New(log, r.sessionConfig(launch, label))

	defer func() {
		if err := s.Stop(); err != nil {
			log.Warn("Failed to stop session", "error", err)
		}

		run.Stderr = s.Stderr()
		run.Duration = time.Since(start)
	}()

	if err := s.Start(ctx); err != nil {
		log.Warn("Launch failed", "error", err)

		run.Err = err
		run.Steps = skipAll(run.Steps, script)

		return run
	}

	for i, step := range script {
		result := r.runStep(ctx, s, step)
		run.Steps = append(run.Steps, result)

		if result.Status == StatusFailed {
			log.Warn("Step failed, skipping the rest", "step", step.Label(), "error", result.Err)

			run.Err = result.Err
			run.Steps = skipAll(run.Steps, script[i+1:])

			break
		}
	}

	return run
}

func (r *Runner) runStep(ctx context.Context, s *session.Session, step Step) StepResult {
	start := time.Now()
	result := StepResult{Step: step}

	var params any
	if len(step.Params) > 0 {
		params = step.Params
	}

	if step.Notification {
		result.Err = s.SendNotification(ctx, step.Method, params)
	} else {
		result.Response, result.Err = s.Call(ctx, step.Method, params, step.Timeout)
	}

	result.Duration = time.Since(start)

	_, remote := stderrors.AsType[*errors.RemoteError](result.Err)

	switch {
	case result.Err == nil:
		result.Status = StatusOK
	case remote && result.Response != nil:
		result.Status = StatusRemoteError
	default:
		result.Status = StatusFailed
	}

	r.log.Debug("Step finished", "step", step.Label(), "status", result.Status, "duration", result.Duration)

	return result
}

func (r *Runner) sessionConfig(launch config.Launch, label string) session.Config {
	cfg := session.Config{
		Process: subprocess.Config{
			Executable:  launch.Executable,
			Args:        launch.Args,
			Env:         launch.Env,
			GracePeriod: r.opts.GracePeriod,
		},
		Timeout:         launch.Timeout,
		OnNotification:  r.opts.OnNotification,
		ProtocolVersion: r.opts.ProtocolVersion,
		ClientInfo:      r.opts.ClientInfo,
	}

	if r.opts.Stderr != nil {
		forward := r.opts.Stderr
		cfg.Process.Stderr = func(line string) {
			forward("[" + label + "] " + line)
		}
	}

	return cfg
}

func skipAll(results []StepResult, steps Script) []StepResult {
	for _, step := range steps {
		results = append(results, StepResult{Step: step, Status: StatusSkipped})
	}

	return results
}
