// Package session correlates JSON-RPC requests and responses over one child
// process.
//
// A Session owns a subprocess.Process for its whole life. Requests are
// written as single lines to the child's stdin; ReceiveResponse reads stdout
// line by line until a response to a pending request arrives, the timeout
// expires or the stream closes.
//
// The Session handles:
//   - Tracking pending request ids and rejecting duplicates in flight
//   - Recording notifications the child sends
//   - Answering requests the child sends (ping, anything else is
//     "method not found" unless a handler is registered)
//   - Force-terminating the child when a response times out
//
// Example usage:
//
//	s := session.New(log, session.Config{Process: subprocess.Config{Executable: "node", Args: args}})
//	if err := s.Start(ctx); err != nil {
//		return err
//	}
//	defer s.Stop()
//
//	resp, err := s.Call(ctx, "tools/list", nil, 0)
package session
