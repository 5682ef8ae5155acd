// Package errors defines error types for the MCP harness.
//
// This package provides structured error types for the failure modes of a
// harness session: launching the child process, writing to or reading from
// its standard streams, waiting for a response and interpreting the reply.
// All error types support error unwrapping and can be checked using
// errors.Is, errors.As, and errors.AsType.
package errors
