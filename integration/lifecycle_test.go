//go:build integration

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

// TestStandardSequence runs initialize, tools/list and a tools/call of every
// listed tool that takes no required arguments.
func TestStandardSequence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	h := mcpharness.New(serverConfig(t, envServer, "server"))

	defer func() { require.NoError(t, h.Stop()) }()

	if err := h.Start(ctx); err != nil {
		skipIfNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	initResult, err := h.Initialize(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, initResult.ProtocolVersion)

	tools, err := h.ListTools(ctx)
	require.NoError(t, err)
	t.Logf("Server lists %d tools", len(tools))

	for _, tool := range tools {
		if tool.InputSchema != nil && len(tool.InputSchema.Required) > 0 {
			continue
		}

		_, err := h.CallTool(ctx, tool.Name, nil)
		if _, ok := errors.AsType[*mcpharness.RemoteError](err); ok {
			t.Logf("Tool %s answered with a remote error: %v", tool.Name, err)

			continue
		}

		require.NoError(t, err, "tool %s", tool.Name)
	}
}

// TestUnlistedTool verifies an unknown tool yields RemoteError and the
// session stays usable.
func TestUnlistedTool(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := mcpharness.WithHarness(ctx, serverConfig(t, envServer, "server"), func(h mcpharness.Harness) error {
		if _, err := h.Initialize(ctx); err != nil {
			return err
		}

		_, err := h.CallTool(ctx, "mcpharness_unlisted_tool", nil)

		_, ok := errors.AsType[*mcpharness.RemoteError](err)
		require.True(t, ok, "expected RemoteError, got %v", err)

		_, err = h.ListTools(ctx)

		return err
	})
	skipIfNotInstalled(t, err)
	require.NoError(t, err)
}

// TestStop_Prompt verifies Stop completes within the escalation bound.
func TestStop_Prompt(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	h := mcpharness.New(serverConfig(t, envServer, "server"))

	if err := h.Start(ctx); err != nil {
		skipIfNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	_, err := h.Initialize(ctx)
	require.NoError(t, err)

	stopStart := time.Now()
	err = h.Stop()
	stopDuration := time.Since(stopStart)

	require.NoError(t, err, "Stop should succeed")
	t.Logf("Stop completed in %v", stopDuration)

	require.Less(t, stopDuration, 10*time.Second, "Stop should not outlast the grace periods")
}

// TestCompareBuilds compares the two configured servers.
func TestCompareBuilds(t *testing.T) {
	left := serverConfig(t, envServer, "source")
	right := serverConfig(t, envCompareServer, "binary")

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	report := mcpharness.Compare(ctx, left, right, mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"}))

	var out testWriter
	out.t = t

	require.NoError(t, report.Render(&out))
	require.False(t, report.Diverged(), "builds diverged")
}

type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))

	return len(p), nil
}
