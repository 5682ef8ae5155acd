// Package mcpharness drives Model Context Protocol servers over stdio for
// testing.
//
// A harness launches a child process, speaks newline-delimited JSON-RPC 2.0
// with it through the child's stdin and stdout, and captures its stderr. It
// can run the standard MCP sequence (initialize, notifications/initialized,
// tools/list, tools/call) or arbitrary raw exchanges, and it can run the same
// script against two builds of a server to detect behavioral divergence.
//
// # Basic Usage
//
// For a single server, use New or the WithHarness helper:
//
//	cfg := mcpharness.Config{
//	    Executable: "node",
//	    Args:       []string{"src/index.js", "mcp", "--verbose"},
//	    Env:        map[string]string{"HELPMETEST_DEBUG": "true"},
//	}
//
//	err := mcpharness.WithHarness(ctx, cfg, func(h mcpharness.Harness) error {
//	    if _, err := h.Initialize(ctx); err != nil {
//	        return err
//	    }
//	    result, err := h.CallTool(ctx, "system_status", nil)
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(mcpharness.ResultText(result))
//	    return nil
//	})
//
// # Raw Exchanges
//
// SendRequest, SendNotification and ReceiveResponse give message-level
// control. Call combines them with a fresh id:
//
//	resp, err := h.Call(ctx, "tools/list", json.RawMessage("{}"), 0)
//
// Messages the child sends on its own are handled while a response is
// awaited: notifications are recorded, ping is answered, and any other
// request gets a "method not found" error unless a handler was registered
// with Handle.
//
// # Comparison Mode
//
// Compare runs one script against two launches on isolated sessions and
// reports, per step, whether the responses are structurally equal:
//
//	report := mcpharness.Compare(ctx, source, binary,
//	    mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"}),
//	)
//	_ = report.Render(os.Stdout)
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	h := mcpharness.New(cfg, mcpharness.WithLogger(logger))
//
// # Error Handling
//
// Every failure is a typed error:
//
//	_, err := h.CallTool(ctx, "system_status", nil)
//	if err != nil {
//	    if launchErr, ok := errors.AsType[*mcpharness.LaunchError](err); ok {
//	        log.Fatalf("cannot start %s: %v", launchErr.Executable, launchErr.Err)
//	    }
//	    if errors.Is(err, mcpharness.ErrTimeout) {
//	        log.Fatal("server did not answer; it has been terminated")
//	    }
//	    if remoteErr, ok := errors.AsType[*mcpharness.RemoteError](err); ok {
//	        log.Fatalf("server error %d: %s", remoteErr.Code, remoteErr.Message)
//	    }
//	    log.Fatal(err)
//	}
//
// There are no automatic retries. A harness that timed out is closed.
package mcpharness
