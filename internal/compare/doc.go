// Package compare runs scripted MCP sequences against child processes and
// compares two launches of the same program step by step.
//
// A Script is an ordered list of steps. RunScript executes it on a single
// fresh session; the first failing step ends the run and the remaining
// steps are skipped. Compare runs the same script against two launches,
// concurrently unless configured otherwise, and reports per step whether
// the responses are structurally equal.
//
// Structural equality ignores key order and whitespace. Differences are
// rendered as a unified diff of the indented payloads.
package compare
