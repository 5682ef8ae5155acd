package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

func newProbeCmd(g *globals) *cobra.Command {
	var (
		target          targetFlags
		calls           []string
		protocolVersion string
	)

	cmd := &cobra.Command{
		Use:   "probe [flags] -- <executable> [args...]",
		Short: "Run the standard MCP sequence against one server",
		Long: `probe runs initialize, notifications/initialized, tools/list and one
tools/call per --call against a single server, printing every response.`,
		Example: `  mcpharness probe --call system_status -- node src/index.js mcp
  mcpharness probe -e HELPMETEST_DEBUG=true --call 'run_test={"id":"smoke"}' -- ./dist/server mcp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := target.config(args)
			if err != nil {
				return err
			}

			toolCalls, err := parseCalls(calls)
			if err != nil {
				return err
			}

			run := mcpharness.RunScript(cmd.Context(), cfg,
				mcpharness.DefaultScript(protocolVersion, toolCalls...),
				g.options()...,
			)

			if err := run.Render(g.stdout); err != nil {
				return err
			}

			if !run.OK() {
				return errDiverged
			}

			return nil
		},
	}

	target.register(cmd)
	cmd.Flags().StringArrayVarP(&calls, "call", "c", nil, "Tool to call as NAME or NAME=JSON (repeatable)")
	cmd.Flags().StringVar(&protocolVersion, "protocol-version", "", "Protocol version declared in initialize (default 2024-11-05)")

	return cmd
}

// parseCalls turns NAME or NAME=JSON into tool calls.
func parseCalls(specs []string) ([]mcpharness.ToolCall, error) {
	calls := make([]mcpharness.ToolCall, 0, len(specs))

	for _, spec := range specs {
		name, args, hasArgs := strings.Cut(spec, "=")
		if name == "" {
			return nil, fmt.Errorf("invalid --call %q: missing tool name", spec)
		}

		call := mcpharness.ToolCall{Name: name}

		if hasArgs {
			if !json.Valid([]byte(args)) {
				return nil, fmt.Errorf("invalid --call %q: arguments are not valid JSON", spec)
			}

			call.Arguments = json.RawMessage(args)
		}

		calls = append(calls, call)
	}

	return calls, nil
}
