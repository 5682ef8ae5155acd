package compare

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-harness-go/internal/config"
	"github.com/wagiedev/mcp-harness-go/internal/errors"
	"github.com/wagiedev/mcp-harness-go/internal/fakeserver"
)

func TestMain(m *testing.M) {
	fakeserver.MaybeRun()
	os.Exit(m.Run())
}

func fakeLaunch(name string, mode fakeserver.Mode, status string) config.Launch {
	exe, args, env := fakeserver.Launch(mode)
	if status != "" {
		env[fakeserver.EnvStatus] = status
	}

	return config.Launch{
		Name:       name,
		Executable: exe,
		Args:       args,
		Env:        env,
		Timeout:    10 * time.Second,
	}
}

func newRunner(opts *config.Options) *Runner {
	if opts == nil {
		opts = &config.Options{}
	}

	opts.GracePeriod = 500 * time.Millisecond

	return NewRunner(slog.New(slog.DiscardHandler), opts)
}

func statusScript() Script {
	return DefaultScript("", nil, config.Call{Name: "system_status", Arguments: json.RawMessage(`{}`)})
}

func TestDefaultScript(t *testing.T) {
	script := DefaultScript("2025-03-26", nil,
		config.Call{Name: "system_status"},
		config.Call{Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)},
	)

	require.Len(t, script, 5)

	require.Equal(t, "initialize", script[0].Method)

	var initParams struct {
		ProtocolVersion string `json:"protocolVersion"`
		ClientInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"clientInfo"`
	}

	require.NoError(t, json.Unmarshal(script[0].Params, &initParams))
	require.Equal(t, "2025-03-26", initParams.ProtocolVersion)
	require.Equal(t, "mcpharness", initParams.ClientInfo.Name)
	require.Equal(t, "0.1.0", initParams.ClientInfo.Version)

	require.Equal(t, "notifications/initialized", script[1].Method)
	require.True(t, script[1].Notification)

	require.Equal(t, "tools/list", script[2].Method)

	require.Equal(t, "tools/call system_status", script[3].Label())
	require.JSONEq(t, `{"name":"system_status","arguments":{}}`, string(script[3].Params))
	require.JSONEq(t, `{"name":"echo","arguments":{"text":"hi"}}`, string(script[4].Params))
}

func TestFromFile(t *testing.T) {
	file := &config.File{
		Calls: []config.Call{{Name: "system_status"}},
	}

	require.Len(t, FromFile(file, nil), 4)

	file.Steps = []config.Step{{Name: "list", Method: "tools/list", Timeout: time.Second}}

	script := FromFile(file, nil)
	require.Equal(t, Script{{Name: "list", Method: "tools/list", Timeout: time.Second}}, script)
}

func TestRunScript_Success(t *testing.T) {
	runner := newRunner(nil)

	run := runner.RunScript(context.Background(), fakeLaunch("source", fakeserver.ModeMCP, ""), statusScript())

	require.True(t, run.OK(), "run failed: %v", run.Err)
	require.Equal(t, "source", run.Label)
	require.Len(t, run.Steps, 4)

	for _, step := range run.Steps {
		require.Equal(t, StatusOK, step.Status, step.Step.Label())
	}

	require.False(t, run.Steps[1].Answered(), "notifications have no response")

	payload := string(run.Steps[3].Payload())
	require.Contains(t, payload, fakeserver.DefaultStatus)
	require.Contains(t, run.Stderr, "starting MCP server")

	var out bytes.Buffer
	require.NoError(t, run.Render(&out))
	require.Contains(t, out.String(), "== run: source ==")
	require.Contains(t, out.String(), "[4] tools/call system_status: ok")
	require.Contains(t, out.String(), "source ok in")
}

func TestRunScript_RemoteErrorDoesNotAbort(t *testing.T) {
	runner := newRunner(nil)

	script := DefaultScript("", nil,
		config.Call{Name: "no_such_tool"},
		config.Call{Name: "system_status"},
	)

	run := runner.RunScript(context.Background(), fakeLaunch("source", fakeserver.ModeMCP, ""), script)

	require.True(t, run.OK(), "run failed: %v", run.Err)
	require.Equal(t, StatusRemoteError, run.Steps[3].Status)
	require.Contains(t, string(run.Steps[3].Payload()), `"error"`)
	require.Equal(t, StatusOK, run.Steps[4].Status)
}

func TestRunScript_FirstFailureSkipsRest(t *testing.T) {
	runner := newRunner(nil)

	launch := fakeLaunch("silent", fakeserver.ModeSilent, "")
	launch.Timeout = 200 * time.Millisecond

	run := runner.RunScript(context.Background(), launch, statusScript())

	require.False(t, run.OK())
	require.ErrorIs(t, run.Err, errors.ErrTimeout)

	require.Equal(t, StatusFailed, run.Steps[0].Status)

	for _, step := range run.Steps[1:] {
		require.Equal(t, StatusSkipped, step.Status)
	}
}

func TestRunScript_LaunchFailure(t *testing.T) {
	runner := newRunner(nil)

	run := runner.RunScript(context.Background(), config.Launch{Name: "ghost", Executable: "/nonexistent/server"}, statusScript())

	require.False(t, run.OK())

	_, ok := stderrors.AsType[*errors.LaunchError](run.Err)
	require.True(t, ok, "expected LaunchError, got %T", run.Err)
	require.Len(t, run.Steps, 4)

	for _, step := range run.Steps {
		require.Equal(t, StatusSkipped, step.Status)
	}
}

func TestRunScript_StepTimeoutOverride(t *testing.T) {
	runner := newRunner(nil)

	launch := fakeLaunch("silent", fakeserver.ModeSilent, "")
	launch.Timeout = time.Minute

	start := time.Now()

	run := runner.RunScript(context.Background(), launch, Script{{Method: "tools/list", Timeout: 100 * time.Millisecond}})

	require.ErrorIs(t, run.Err, errors.ErrTimeout)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestRunScript_ForwardsStderrWithLabel(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)

	runner := newRunner(&config.Options{
		Stderr: func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		},
	})

	run := runner.RunScript(context.Background(), fakeLaunch("source", fakeserver.ModeMCP, ""), statusScript())
	require.True(t, run.OK())

	mu.Lock()
	defer mu.Unlock()

	require.Contains(t, lines, "[source] fakeserver: starting MCP server on stdio")
}

func TestCompare_Equal(t *testing.T) {
	runner := newRunner(nil)

	report := runner.Compare(context.Background(),
		fakeLaunch("source", fakeserver.ModeMCP, ""),
		fakeLaunch("binary", fakeserver.ModeMCP, ""),
		statusScript(),
	)

	equal, differ, missing := report.Counts()
	require.Equal(t, 4, equal)
	require.Zero(t, differ)
	require.Zero(t, missing)
	require.False(t, report.Diverged())

	var out bytes.Buffer
	require.NoError(t, report.Render(&out))
	require.Contains(t, out.String(), "== compare: source vs binary ==")
	require.Contains(t, out.String(), "Summary: 4 equal, 0 differ, 0 missing")
	require.Contains(t, out.String(), "Both runs succeeded")
}

func TestCompare_Differ(t *testing.T) {
	runner := newRunner(&config.Options{Sequential: true})

	report := runner.Compare(context.Background(),
		fakeLaunch("source", fakeserver.ModeMCP, ""),
		fakeLaunch("binary", fakeserver.ModeMCP, "degraded"),
		statusScript(),
	)

	require.True(t, report.Diverged())

	last := report.Steps[3]
	require.Equal(t, VerdictDiffer, last.Verdict)
	require.Contains(t, last.Diff, "--- source")
	require.Contains(t, last.Diff, "+++ binary")
	require.Regexp(t, `(?m)^-\s+"text": "`+fakeserver.DefaultStatus+`",?$`, last.Diff)
	require.Regexp(t, `(?m)^\+\s+"text": "degraded",?$`, last.Diff)

	left, right := last.Payloads()
	require.Contains(t, string(left), fakeserver.DefaultStatus)
	require.Contains(t, string(right), "degraded")

	var out bytes.Buffer
	require.NoError(t, report.Render(&out))

	text := out.String()
	require.Contains(t, text, "[4] tools/call system_status: differ")
	require.Contains(t, text, "    source:\n"+indentBlock(Indent(left), "      "))
	require.Contains(t, text, "    binary:\n"+indentBlock(Indent(right), "      "))
	require.Contains(t, text, "    diff:\n      --- source")
	require.Contains(t, text, "Summary: 3 equal, 1 differ, 0 missing")
}

func TestCompare_DifferentSuccess(t *testing.T) {
	runner := newRunner(nil)

	right := fakeLaunch("binary", fakeserver.ModeExit, "")

	report := runner.Compare(context.Background(),
		fakeLaunch("source", fakeserver.ModeMCP, ""),
		right,
		statusScript(),
	)

	require.True(t, report.Diverged())
	require.True(t, report.Left.OK())
	require.False(t, report.Right.OK())

	require.Equal(t, VerdictMissing, report.Steps[0].Verdict)

	var out bytes.Buffer
	require.NoError(t, report.Render(&out))

	text := out.String()
	require.Contains(t, text, "[1] initialize: missing")
	require.Contains(t, text, "binary: no response")
	require.Contains(t, text, "binary: skipped after an earlier failure")
	require.Contains(t, text, "Different success: source ok, binary failed")
	require.True(t, strings.Contains(text, "cannot open database"), "stderr tail should be reported:\n%s", text)
}

func TestCompareStep_Notification(t *testing.T) {
	step := Step{Method: "notifications/initialized", Notification: true}

	ok := StepResult{Step: step, Status: StatusOK}
	failed := StepResult{Step: step, Status: StatusFailed}

	require.Equal(t, VerdictEqual, compareStep(step, ok, ok, "a", "b").Verdict)
	require.Equal(t, VerdictMissing, compareStep(step, ok, failed, "a", "b").Verdict)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "key order ignored", a: `{"a":1,"b":[1,2]}`, b: `{ "b": [1, 2], "a": 1 }`, want: true},
		{name: "array order matters", a: `[1,2]`, b: `[2,1]`, want: false},
		{name: "numbers by literal", a: `{"n":1}`, b: `{"n":1.0}`, want: false},
		{name: "nested difference", a: `{"x":{"y":"z"}}`, b: `{"x":{"y":"w"}}`, want: false},
		{name: "invalid json byte compare", a: `not json`, b: ` not json `, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Equal(json.RawMessage(tt.a), json.RawMessage(tt.b)))
		})
	}
}

func TestIndentSortsKeys(t *testing.T) {
	require.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", Indent(json.RawMessage(`{"b":2,"a":1}`)))
	require.Equal(t, "garbage", Indent(json.RawMessage("garbage")))
}
