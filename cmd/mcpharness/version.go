package main

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

func newVersionCmd(g *globals) *cobra.Command {
	var minVersion string

	cmd := &cobra.Command{
		Use:   "exe-version [flags] -- <executable> [args...]",
		Short: "Print the version a server reports for --version",
		Long: `exe-version runs "<executable> [args...] --version" with a two second
timeout and prints the first X.Y.Z found in its output.`,
		Example: `  mcpharness exe-version -- ./dist/server
  mcpharness exe-version --min 1.4.0 -- node src/index.js`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := mcpharness.ExecutableVersion(cmd.Context(),
				mcpharness.Config{Executable: args[0], Args: args[1:]},
				mcpharness.WithLogger(g.logger()),
			)
			if err != nil {
				return err
			}

			fmt.Fprintln(g.stdout, version)

			if minVersion != "" && mcpharness.CompareVersions(version, minVersion) < 0 {
				return fmt.Errorf("version %s is older than the required %s", version, minVersion)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&minVersion, "min", "", "Fail when the reported version is older than this")

	return cmd
}
