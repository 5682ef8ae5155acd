package mcpharness

import (
	"context"

	"github.com/wagiedev/mcp-harness-go/internal/launcher"
)

// ExecutableVersion runs "<executable> <args...> --version" for cfg and
// returns the first X.Y.Z in its output. The probe is bounded to two
// seconds. Returns LaunchError when the executable cannot be resolved.
func ExecutableVersion(ctx context.Context, cfg Config, opts ...Option) (string, error) {
	options := applyOptions(opts)
	resolver := launcher.NewResolver(options.Logger)

	path, err := resolver.Resolve(cfg.Executable)
	if err != nil {
		return "", err
	}

	return resolver.ProbeVersion(ctx, path, cfg.Args)
}

// CompareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareVersions(a, b string) int {
	return launcher.CompareVersions(a, b)
}
