package compare

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcp-harness-go/internal/config"
)

// Verdict is the comparison outcome of one step.
type Verdict string

const (
	// VerdictEqual means both sides answered with structurally equal payloads.
	VerdictEqual Verdict = "equal"
	// VerdictDiffer means both sides answered with different payloads.
	VerdictDiffer Verdict = "differ"
	// VerdictMissing means at least one side produced no response.
	VerdictMissing Verdict = "missing"
)

// StepComparison compares one step across the two runs.
type StepComparison struct {
	Step    Step
	Verdict Verdict
	Left    StepResult
	Right   StepResult

	// Diff is a unified diff of the payloads when the verdict is differ.
	Diff string
}

// Report is the outcome of a comparison.
type Report struct {
	Left  *Run
	Right *Run
	Steps []StepComparison
}

// Counts returns the number of steps per verdict.
func (r *Report) Counts() (equal, differ, missing int) {
	for _, s := range r.Steps {
		switch s.Verdict {
		case VerdictEqual:
			equal++
		case VerdictDiffer:
			differ++
		case VerdictMissing:
			missing++
		}
	}

	return equal, differ, missing
}

// Diverged reports whether any step differs or is missing, or exactly one
// side failed.
func (r *Report) Diverged() bool {
	_, differ, missing := r.Counts()

	return differ > 0 || missing > 0 || r.Left.OK() != r.Right.OK()
}

// Compare runs script against left and right and compares the runs step by
// step. The runs share nothing; they overlap in time unless the runner's
// options ask for sequential execution. Failures on either side are part of
// the report, never an error.
func (r *Runner) Compare(ctx context.Context, left, right config.Launch, script Script) *Report {
	var leftRun, rightRun *Run

	if r.opts.Sequential {
		leftRun = r.RunScript(ctx, left, script)
		rightRun = r.RunScript(ctx, right, script)
	} else {
		var g errgroup.Group

		g.Go(func() error {
			leftRun = r.RunScript(ctx, left, script)

			return nil
		})

		g.Go(func() error {
			rightRun = r.RunScript(ctx, right, script)

			return nil
		})

		_ = g.Wait()
	}

	report := &Report{Left: leftRun, Right: rightRun}

	for i, step := range script {
		report.Steps = append(report.Steps, compareStep(step, leftRun.Steps[i], rightRun.Steps[i], leftRun.Label, rightRun.Label))
	}

	equal, differ, missing := report.Counts()

	r.log.Info("Comparison finished",
		"left", leftRun.Label,
		"right", rightRun.Label,
		"equal", equal,
		"differ", differ,
		"missing", missing,
	)

	return report
}

func compareStep(step Step, left, right StepResult, leftLabel, rightLabel string) StepComparison {
	cmp := StepComparison{Step: step, Left: left, Right: right}

	if step.Notification {
		if left.Status == StatusOK && right.Status == StatusOK {
			cmp.Verdict = VerdictEqual
		} else {
			cmp.Verdict = VerdictMissing
		}

		return cmp
	}

	if !left.Answered() || !right.Answered() {
		cmp.Verdict = VerdictMissing

		return cmp
	}

	leftPayload, rightPayload := left.Payload(), right.Payload()

	if Equal(leftPayload, rightPayload) {
		cmp.Verdict = VerdictEqual

		return cmp
	}

	cmp.Verdict = VerdictDiffer
	cmp.Diff = Diff(leftPayload, rightPayload, leftLabel, rightLabel)

	return cmp
}

// Payloads returns both payloads of a step for display.
func (c StepComparison) Payloads() (left, right json.RawMessage) {
	return c.Left.Payload(), c.Right.Payload()
}
