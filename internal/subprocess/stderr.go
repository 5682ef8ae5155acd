package subprocess

import (
	"regexp"
	"strings"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]`)

// cleanStderr strips terminal escape sequences and source context lines
// from stderr so error messages stay readable.
// Runtimes such as Node and Bun print the offending source next to a stack
// trace, which adds nothing to a failure report.
func cleanStderr(stderr string) string {
	if stderr == "" {
		return ""
	}

	stderr = ansiPattern.ReplaceAllString(stderr, "")

	var cleaned strings.Builder

	for line := range strings.SplitSeq(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if isSourceContextLine(trimmed) || isCaretLine(trimmed) {
			continue
		}

		if cleaned.Len() > 0 {
			cleaned.WriteString("\n")
		}

		cleaned.WriteString(line)
	}

	return strings.TrimSpace(cleaned.String())
}

// isSourceContextLine reports lines of the form "1234 | <code>".
func isSourceContextLine(line string) bool {
	pipeIdx := strings.Index(line, "|")
	if pipeIdx < 1 {
		return false
	}

	prefix := strings.TrimSpace(line[:pipeIdx])
	if prefix == "" {
		return false
	}

	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}

// isCaretLine reports the "    ^^^" marker Node prints under source context.
func isCaretLine(line string) bool {
	return line != "" && strings.Trim(line, "^~ ") == ""
}
