// Package launcher resolves and prepares the executable a harness session
// runs as its child process.
//
// This package provides three capabilities:
//
// # Executable Resolution
//
// The Resolver locates the executable named in a launch configuration:
//
//	resolver := launcher.NewResolver(log)
//	path, err := resolver.Resolve("node")
//
// A name containing a path separator is checked on disk (it must exist, be
// a regular file and be executable). A bare name is searched in PATH.
// Either failure yields a LaunchError before any process is spawned.
//
// # Environment
//
// BuildEnvironment returns the parent environment followed by the
// configured overrides in sorted key order. os/exec keeps the last value of
// a duplicated key, so overrides win.
//
// # Version Probe
//
// ProbeVersion runs the executable with --version and extracts an X.Y.Z
// version, mirroring the pre-flight check developers run before comparing
// two builds.
package launcher
