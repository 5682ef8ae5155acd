package compare

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const stderrTailLines = 5

// Render writes the per-step comparison and the final summary. The summary
// is always written, whatever the outcome.
func (r *Report) Render(w io.Writer) error {
	p := &printer{w: w}

	p.printf("== compare: %s vs %s ==\n", r.Left.Label, r.Right.Label)

	for i, step := range r.Steps {
		p.printf("[%d] %s: %s\n", i+1, step.Step.Label(), step.Verdict)

		switch step.Verdict {
		case VerdictDiffer:
			p.side(r.Left.Label, step.Left)
			p.side(r.Right.Label, step.Right)

			if step.Diff != "" {
				p.printf("    diff:\n%s\n", indentBlock(step.Diff, "      "))
			}
		case VerdictMissing:
			p.side(r.Left.Label, step.Left)
			p.side(r.Right.Label, step.Right)
		case VerdictEqual:
		}
	}

	equal, differ, missing := r.Counts()

	p.printf("\nSummary: %d equal, %d differ, %d missing\n", equal, differ, missing)

	switch {
	case r.Left.OK() && r.Right.OK():
		p.printf("Both runs succeeded\n")
	case !r.Left.OK() && !r.Right.OK():
		p.printf("Both runs failed\n")
		p.failure(r.Left)
		p.failure(r.Right)
	default:
		p.printf("Different success: %s %s, %s %s\n", r.Left.Label, outcome(r.Left), r.Right.Label, outcome(r.Right))
		p.failure(r.Left)
		p.failure(r.Right)
	}

	return p.err
}

// Render writes every step of a single run with its payload.
func (r *Run) Render(w io.Writer) error {
	p := &printer{w: w}

	p.printf("== run: %s ==\n", r.Label)

	for i, step := range r.Steps {
		p.printf("[%d] %s: %s (%s)\n", i+1, step.Step.Label(), step.Status, step.Duration.Round(time.Millisecond))

		switch {
		case step.Answered():
			p.printf("%s\n", indentBlock(Indent(step.Payload()), "    "))
		case step.Err != nil:
			p.printf("    error: %v\n", step.Err)
		}
	}

	p.printf("\n%s %s in %s\n", r.Label, outcome(r), r.Duration.Round(time.Millisecond))
	p.failure(r)

	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) side(label string, result StepResult) {
	switch {
	case result.Answered():
		p.printf("    %s:\n%s\n", label, indentBlock(Indent(result.Payload()), "      "))
	case result.Status == StatusOK:
		p.printf("    %s: sent\n", label)
	case result.Status == StatusSkipped:
		p.printf("    %s: skipped after an earlier failure\n", label)
	case result.Err != nil:
		p.printf("    %s: no response (%v)\n", label, result.Err)
	default:
		p.printf("    %s: no response\n", label)
	}
}

func (p *printer) failure(r *Run) {
	if r.OK() {
		return
	}

	p.printf("%s failed: %v\n", r.Label, r.Err)

	if tail := tailLines(r.Stderr, stderrTailLines); tail != "" {
		p.printf("  stderr:\n%s\n", indentBlock(tail, "    "))
	}
}

func outcome(r *Run) string {
	if r.OK() {
		return "ok"
	}

	return "failed"
}

func indentBlock(s, prefix string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}

	return strings.Join(lines, "\n")
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
