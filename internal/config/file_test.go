package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "compare.toml", `
timeout = "3s"
protocol_version = "2025-03-26"

[[target]]
name = "source"
executable = "node"
args = ["src/index.js", "mcp", "--verbose"]
env = { HELPMETEST_DEBUG = "true" }

[[target]]
executable = "./dist/helpmetest"
args = ["mcp"]
timeout = "10s"

[[call]]
name = "system_status"

[[call]]
name = "run_test"
arguments = { id = "smoke", retries = 2 }
`)

	file, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 3*time.Second, file.Timeout)
	require.Equal(t, "2025-03-26", file.ProtocolVersion)

	require.Len(t, file.Targets, 2)
	require.Equal(t, Launch{
		Name:       "source",
		Executable: "node",
		Args:       []string{"src/index.js", "mcp", "--verbose"},
		Env:        map[string]string{"HELPMETEST_DEBUG": "true"},
		Timeout:    3 * time.Second,
	}, file.Targets[0])

	require.Equal(t, "target-2", file.Targets[1].Name)
	require.Equal(t, 10*time.Second, file.Targets[1].Timeout)

	require.Len(t, file.Calls, 2)
	require.Equal(t, "system_status", file.Calls[0].Name)
	require.JSONEq(t, `{}`, string(file.Calls[0].Arguments))
	require.JSONEq(t, `{"id":"smoke","retries":2}`, string(file.Calls[1].Arguments))

	require.Empty(t, file.Steps)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "compare.yaml", `
timeout: 2s
target:
  - name: source
    executable: node
    args: [src/index.js, mcp]
  - name: binary
    executable: ./dist/helpmetest
    args: [mcp]
step:
  - method: initialize
    params:
      protocolVersion: "2024-11-05"
      capabilities: {}
      clientInfo: {name: test-client, version: "1.0.0"}
  - method: notifications/initialized
    notification: true
  - name: list
    method: tools/list
    timeout: 500ms
`)

	file, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 2*time.Second, file.Timeout)
	require.Len(t, file.Targets, 2)
	require.Equal(t, "binary", file.Targets[1].Name)

	require.Len(t, file.Steps, 3)
	require.Equal(t, "initialize", file.Steps[0].Name)
	require.JSONEq(t, `{
		"protocolVersion": "2024-11-05",
		"capabilities": {},
		"clientInfo": {"name": "test-client", "version": "1.0.0"}
	}`, string(file.Steps[0].Params))
	require.Equal(t, 2*time.Second, file.Steps[0].Timeout)

	require.True(t, file.Steps[1].Notification)
	require.Nil(t, file.Steps[1].Params)

	require.Equal(t, "list", file.Steps[2].Name)
	require.Equal(t, 500*time.Millisecond, file.Steps[2].Timeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "unsupported extension",
			file:    "compare.json",
			content: `{}`,
			wantErr: "unsupported extension",
		},
		{
			name:    "missing executable",
			file:    "compare.toml",
			content: "[[target]]\nname = \"a\"\n",
			wantErr: "target a: executable is required",
		},
		{
			name:    "bad duration",
			file:    "compare.toml",
			content: "timeout = \"soon\"\n",
			wantErr: "parse timeout",
		},
		{
			name:    "empty timeout",
			file:    "compare.toml",
			content: "timeout = \"\"\n",
			wantErr: "timeout is empty",
		},
		{
			name:    "unknown toml key",
			file:    "compare.toml",
			content: "[[target]]\nexecutable = \"node\"\nargz = [\"x\"]\n",
			wantErr: "unknown key",
		},
		{
			name:    "unknown yaml key",
			file:    "compare.yml",
			content: "targets:\n  - executable: node\n",
			wantErr: "field targets not found",
		},
		{
			name:    "step without method",
			file:    "compare.yaml",
			content: "step:\n  - name: nothing\n",
			wantErr: "step 1: method is required",
		},
		{
			name:    "call without name",
			file:    "compare.toml",
			content: "[[call]]\narguments = {}\n",
			wantErr: "call 1: name is required",
		},
		{
			name:    "negative duration",
			file:    "compare.yaml",
			content: "timeout: -1s\n",
			wantErr: "negative duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLaunch_Label(t *testing.T) {
	require.Equal(t, "source", Launch{Name: "source", Executable: "node"}.Label())
	require.Equal(t, "node", Launch{Executable: "node"}.Label())
}
