package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// VersionProbeTimeout bounds the --version invocation.
const VersionProbeTimeout = 2 * time.Second

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// ProbeVersion runs "<path> <args...> --version" and returns the first X.Y.Z
// found in its output.
func (r *Resolver) ProbeVersion(ctx context.Context, path string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, VersionProbeTimeout)
	defer cancel()

	argv := append(slices.Clone(args), "--version")

	//nolint:gosec // G204: executable comes from the launch configuration
	cmd := exec.CommandContext(ctx, path, argv...)

	output, err := cmd.Output()
	if err != nil {
		r.log.Debug("Version probe failed", "path", path, "error", err)

		return "", fmt.Errorf("run %s --version: %w", path, err)
	}

	text := strings.TrimSpace(string(output))

	match := versionPattern.FindStringSubmatch(text)
	if match == nil {
		return "", fmt.Errorf("no version in output %q", text)
	}

	r.log.Debug("Version probe succeeded", "path", path, "version", match[1])

	return match[1], nil
}

// CompareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func CompareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
