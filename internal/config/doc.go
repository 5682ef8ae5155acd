// Package config provides configuration types for the MCP harness.
//
// Launch describes one child process. Options carries the settings the
// functional options of the root package fill in. File is a comparison file
// loaded from TOML or YAML, selected by extension:
//
//	timeout = "5s"
//	protocol_version = "2024-11-05"
//
//	[[target]]
//	name = "source"
//	executable = "node"
//	args = ["src/index.js", "mcp"]
//	env = { HELPMETEST_DEBUG = "true" }
//
//	[[call]]
//	name = "system_status"
//	arguments = {}
//
// A file lists either [[call]] entries, run after the standard initialize
// and tools/list sequence, or a fully explicit [[step]] script. Steps win
// when both are present.
package config
