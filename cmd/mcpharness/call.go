package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

func newCallCmd(g *globals) *cobra.Command {
	var (
		target  targetFlags
		rawJSON bool
	)

	cmd := &cobra.Command{
		Use:   "call <tool> [json-args] -- <executable> [args...]",
		Short: "Invoke one tool on a server",
		Long: `call performs the handshake with a server, invokes a single tool with the
given JSON arguments and prints the text of its result. The arguments are
forwarded verbatim; the tool's input schema is not checked.`,
		Example: `  mcpharness call system_status -- node src/index.js mcp
  mcpharness call run_test '{"id":"smoke"}' -- ./dist/server mcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 0 {
				return errors.New("missing -- before the server command")
			}

			if dash < 1 || dash > 2 {
				return fmt.Errorf("want <tool> [json-args] before --, got %d arguments", dash)
			}

			tool := args[0]

			var toolArgs json.RawMessage
			if dash == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("invalid JSON arguments %q", args[1])
				}

				toolArgs = json.RawMessage(args[1])
			}

			cfg, err := target.config(args[dash:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			return mcpharness.WithHarness(ctx, cfg, func(h mcpharness.Harness) error {
				if _, err := h.Initialize(ctx); err != nil {
					return err
				}

				result, err := h.CallTool(ctx, tool, toolArgs)
				if err != nil {
					return err
				}

				if rawJSON {
					data, err := json.MarshalIndent(result, "", "  ")
					if err != nil {
						return fmt.Errorf("marshal result: %w", err)
					}

					fmt.Fprintln(g.stdout, string(data))
				} else {
					fmt.Fprintln(g.stdout, mcpharness.ResultText(result))
				}

				if result.IsError {
					return fmt.Errorf("tool %s reported an error", tool)
				}

				return nil
			}, g.options()...)
		},
	}

	target.register(cmd)
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print the full result as JSON")

	return cmd
}
