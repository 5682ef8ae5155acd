package mcpharness_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mcpharness "github.com/wagiedev/mcp-harness-go"
	"github.com/wagiedev/mcp-harness-go/internal/fakeserver"
)

func TestDefaultScript(t *testing.T) {
	script := mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"})

	require.Len(t, script, 4)
	require.Equal(t, mcpharness.MethodInitialize, script[0].Method)
	require.Contains(t, string(script[0].Params), `"2024-11-05"`)
	require.True(t, script[1].Notification)
	require.Equal(t, mcpharness.MethodListTools, script[2].Method)
	require.JSONEq(t, `{"name":"system_status","arguments":{}}`, string(script[3].Params))
}

func TestRunScript(t *testing.T) {
	run := mcpharness.RunScript(context.Background(),
		fakeConfig(fakeserver.ModeMCP),
		mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"}),
		mcpharness.WithGracePeriod(200*time.Millisecond),
	)

	require.True(t, run.OK(), "run failed: %v", run.Err)

	for _, step := range run.Steps {
		require.Equal(t, mcpharness.StatusOK, step.Status)
	}
}

func TestCompare(t *testing.T) {
	left := fakeConfig(fakeserver.ModeMCP)
	left.Name = "source"

	right := fakeConfig(fakeserver.ModeMCP)
	right.Name = "binary"
	right.Env[fakeserver.EnvStatus] = "maintenance"

	report := mcpharness.Compare(context.Background(), left, right,
		mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"}),
		mcpharness.WithSequential(),
		mcpharness.WithGracePeriod(200*time.Millisecond),
	)

	require.True(t, report.Diverged())
	require.Equal(t, mcpharness.VerdictEqual, report.Steps[0].Verdict)
	require.Equal(t, mcpharness.VerdictDiffer, report.Steps[3].Verdict)

	var out bytes.Buffer
	require.NoError(t, report.Render(&out))
	require.Contains(t, out.String(), "maintenance")
	require.Contains(t, out.String(), "Both runs succeeded")
}

func TestLoadConfigAndScriptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.toml")

	require.NoError(t, os.WriteFile(path, []byte(`
timeout = "3s"

[[target]]
name = "source"
executable = "node"
args = ["src/index.js", "mcp"]

[[target]]
name = "binary"
executable = "./dist/server"

[[call]]
name = "system_status"
`), 0o600))

	file, err := mcpharness.LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, file.Targets, 2)
	require.Equal(t, 3*time.Second, file.Targets[1].Timeout)

	script := mcpharness.ScriptFromFile(file, mcpharness.WithClientInfo("ci", "2.0.0"))
	require.Len(t, script, 4)
	require.Contains(t, string(script[0].Params), `"ci"`)
	require.Equal(t, "tools/call system_status", script[3].Label())
}
