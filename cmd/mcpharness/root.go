package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

// errDiverged reports a failed probe or a comparison that found differences.
// The report has already been printed when it is returned.
var errDiverged = errors.New("divergence detected")

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	stdout io.Writer
	stderr io.Writer

	verbose      bool
	streamStderr bool
	grace        time.Duration
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout, stderr: &lockedWriter{w: stderr}}

	root := &cobra.Command{
		Use:   "mcpharness",
		Short: "Drive MCP servers over stdio",
		Long: `mcpharness launches Model Context Protocol servers as child processes and
speaks newline-delimited JSON-RPC 2.0 with them over stdin and stdout.

Use it to exercise a server through the standard sequence, to invoke a single
tool, or to compare two builds of the same server step by step.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log protocol traffic at debug level")
	root.PersistentFlags().BoolVar(&g.streamStderr, "stderr", false, "Stream the servers' stderr as it arrives")
	root.PersistentFlags().DurationVar(&g.grace, "grace", 0, "Grace period before escalating shutdown (default 2s)")

	root.AddCommand(
		newProbeCmd(g),
		newCallCmd(g),
		newCompareCmd(g),
		newVersionCmd(g),
	)

	return root
}

func (g *globals) logger() *slog.Logger {
	return mcpharness.NewLogger(g.stderr, g.verbose)
}

// options builds the harness options common to every subcommand.
func (g *globals) options() []mcpharness.Option {
	opts := []mcpharness.Option{mcpharness.WithLogger(g.logger())}

	if g.streamStderr {
		opts = append(opts, mcpharness.WithStderr(func(line string) {
			fmt.Fprintln(g.stderr, line)
		}))
	}

	if g.grace > 0 {
		opts = append(opts, mcpharness.WithGracePeriod(g.grace))
	}

	return opts
}

// targetFlags describes a server given on the command line after "--".
type targetFlags struct {
	name    string
	env     []string
	timeout time.Duration
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.name, "name", "", "Label for the server in output")
	cmd.Flags().StringArrayVarP(&t.env, "env", "e", nil, "Environment override KEY=VALUE (repeatable)")
	cmd.Flags().DurationVarP(&t.timeout, "timeout", "t", 0, "Response timeout (default 5s)")
}

func (t *targetFlags) config(command []string) (mcpharness.Config, error) {
	if len(command) == 0 {
		return mcpharness.Config{}, errors.New("missing server command after --")
	}

	env, err := parseEnv(t.env)
	if err != nil {
		return mcpharness.Config{}, err
	}

	return mcpharness.Config{
		Name:       t.name,
		Executable: command[0],
		Args:       command[1:],
		Env:        env,
		Timeout:    t.timeout,
	}, nil
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q: want KEY=VALUE", pair)
		}

		env[key] = value
	}

	return env, nil
}

// lockedWriter serializes writes from concurrent sessions.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
