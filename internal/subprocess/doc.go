// Package subprocess runs the child process of a harness session.
//
// A Process spawns one executable with piped standard streams. Stdout is
// split into non-blank lines delivered on a channel, stderr is captured into
// a bounded buffer and optionally forwarded line by line, and stdin accepts
// newline-terminated writes.
//
// On unix the child is placed in its own process group so that shutdown
// signals reach any helpers it spawned. Stop closes stdin, then sends
// SIGTERM, then SIGKILL, waiting a grace period between steps.
package subprocess
