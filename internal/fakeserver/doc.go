// Package fakeserver is a scriptable stdio MCP server for tests.
//
// Test binaries re-execute themselves as the child of a harness session: a
// package's TestMain calls MaybeRun first, which takes over the process when
// the EnvMode variable is set. Launch returns the executable, arguments and
// environment that start the current test binary in a given Mode.
//
//	func TestMain(m *testing.M) {
//		fakeserver.MaybeRun()
//		os.Exit(m.Run())
//	}
//
// ModeMCP serves real MCP through the official SDK. The other modes
// misbehave in one specific way each.
package fakeserver
