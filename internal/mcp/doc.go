// Package mcp builds and parses the Model Context Protocol payloads a harness
// session exchanges with its child.
//
// Client side, it produces the initialize parameters and decodes the
// initialize, tools/list and tools/call results into the typed structures of
// the official MCP SDK. Tool input schemas are decoded but never enforced:
// arguments are forwarded to the child verbatim.
//
// Server side, it offers the few helpers the test fake server uses to
// register tools.
package mcp
