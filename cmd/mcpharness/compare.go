package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

func newCompareCmd(g *globals) *cobra.Command {
	var (
		configPath string
		sequential bool
	)

	cmd := &cobra.Command{
		Use:   "compare --config <file>",
		Short: "Compare two builds of a server step by step",
		Long: `compare runs the same script against the two targets of a TOML or YAML
comparison file, each on its own session, and reports for every step whether
the responses are structurally equal. The exit status is 1 when any step
differs or is missing, or when only one side succeeded.`,
		Example: `  mcpharness compare --config compare.toml
  mcpharness compare --config compare.yaml --sequential --stderr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				return errors.New("--config is required")
			}

			file, err := mcpharness.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if len(file.Targets) != 2 {
				return fmt.Errorf("%s: compare needs exactly two targets, found %d", configPath, len(file.Targets))
			}

			opts := g.options()
			if sequential {
				opts = append(opts, mcpharness.WithSequential())
			}

			if file.ProtocolVersion != "" {
				opts = append(opts, mcpharness.WithProtocolVersion(file.ProtocolVersion))
			}

			report := mcpharness.Compare(cmd.Context(),
				file.Targets[0],
				file.Targets[1],
				mcpharness.ScriptFromFile(file, opts...),
				opts...,
			)

			if err := report.Render(g.stdout); err != nil {
				return err
			}

			if report.Diverged() {
				return errDiverged
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "f", "", "Comparison file (.toml, .yaml or .yml)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Run the two targets one after the other")

	return cmd
}
