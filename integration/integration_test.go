//go:build integration

package integration

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	mcpharness "github.com/wagiedev/mcp-harness-go"
)

// Environment variables naming the servers under test. Each holds a command
// line split on whitespace, e.g. "node src/index.js mcp".
const (
	envServer        = "MCPHARNESS_SERVER"
	envCompareServer = "MCPHARNESS_COMPARE_SERVER"
)

// serverConfig returns the launch configuration held in env, skipping the
// test when it is unset.
func serverConfig(t *testing.T, env, name string) mcpharness.Config {
	t.Helper()

	fields := strings.Fields(os.Getenv(env))
	if len(fields) == 0 {
		t.Skipf("%s not set", env)
	}

	return mcpharness.Config{
		Name:       name,
		Executable: fields[0],
		Args:       fields[1:],
		Timeout:    30 * time.Second,
	}
}

// skipIfNotInstalled skips the test if the error indicates the server
// executable is missing.
func skipIfNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*mcpharness.LaunchError](err); ok {
		t.Skipf("server not installed: %v", err)
	}
}
