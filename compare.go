package mcpharness

import (
	"context"

	"github.com/wagiedev/mcp-harness-go/internal/compare"
	"github.com/wagiedev/mcp-harness-go/internal/config"
)

// DefaultScript builds the standard sequence: initialize,
// notifications/initialized, tools/list, then one tools/call per call.
// An empty protocolVersion declares "2024-11-05".
func DefaultScript(protocolVersion string, calls ...ToolCall) Script {
	return compare.DefaultScript(protocolVersion, nil, calls...)
}

// LoadConfig reads a comparison file. The format follows the extension:
// .toml, or .yaml/.yml.
func LoadConfig(path string) (*ConfigFile, error) {
	return config.Load(path)
}

// ScriptFromFile returns the file's explicit steps, or the standard sequence
// with the file's tool calls when it lists no steps.
func ScriptFromFile(file *ConfigFile, opts ...Option) Script {
	options := applyOptions(opts)

	return compare.FromFile(file, options.ClientInfo)
}

// RunScript executes script on a fresh session for cfg. Failures are
// recorded in the returned Run, never returned: the first step without a
// response ends the run and the remaining steps are skipped.
func RunScript(ctx context.Context, cfg Config, script Script, opts ...Option) *Run {
	options := applyOptions(opts)

	return compare.NewRunner(options.Logger, options).RunScript(ctx, cfg, script)
}

// Compare runs script against left and right on two isolated sessions and
// compares the responses step by step. The sessions run concurrently unless
// WithSequential is given. A failing side is part of the report.
//
// Example usage:
//
//	report := mcpharness.Compare(ctx,
//	    mcpharness.Config{Name: "source", Executable: "node", Args: []string{"src/index.js", "mcp"}},
//	    mcpharness.Config{Name: "binary", Executable: "./dist/server", Args: []string{"mcp"}},
//	    mcpharness.DefaultScript("", mcpharness.ToolCall{Name: "system_status"}),
//	)
//
//	_ = report.Render(os.Stdout)
//
//	if report.Diverged() {
//	    os.Exit(1)
//	}
func Compare(ctx context.Context, left, right Config, script Script, opts ...Option) *Report {
	options := applyOptions(opts)

	return compare.NewRunner(options.Logger, options).Compare(ctx, left, right, script)
}
