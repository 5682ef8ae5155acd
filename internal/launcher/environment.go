package launcher

import (
	"maps"
	"os"
	"slices"
)

// BuildEnvironment constructs the environment for the child process.
func BuildEnvironment(overrides map[string]string) []string {
	env := os.Environ()

	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		env = append(env, key+"="+overrides[key])
	}

	return env
}
