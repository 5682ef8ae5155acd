package mcpharness

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-harness-go/internal/compare"
	"github.com/wagiedev/mcp-harness-go/internal/config"
	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
	"github.com/wagiedev/mcp-harness-go/internal/mcp"
	"github.com/wagiedev/mcp-harness-go/internal/session"
)

// ===== Configuration =====

// Config is the explicit configuration of one child process:
// Name, Executable, Args, Env and Timeout.
type Config = config.Launch

// Options configures harness behavior. Build it with Option functions.
type Options = config.Options

// ConfigFile is a parsed comparison file: targets plus a script.
type ConfigFile = config.File

// ToolCall is a tools/call step shorthand in a comparison file.
type ToolCall = config.Call

// DefaultTimeout bounds each wait for a response when Config.Timeout is zero.
const DefaultTimeout = session.DefaultTimeout

// ===== JSON-RPC =====

// Request is a JSON-RPC request, or a notification when it has no id.
type Request = jsonrpc.Request

// Response is a JSON-RPC response carrying either a result or an error.
type Response = jsonrpc.Response

// RPCError is the error object of a failed response.
type RPCError = jsonrpc.Error

// ID is a request identifier: an integer or a string.
type ID = jsonrpc.ID

// IDGenerator produces fresh request ids for one session.
type IDGenerator = jsonrpc.IDGenerator

// RequestHandler answers a request sent by the child.
type RequestHandler = session.RequestHandler

var (
	// IntID returns a numeric request id.
	IntID = jsonrpc.IntID

	// StringID returns a string request id.
	StringID = jsonrpc.StringID

	// SequentialIDs yields 1, 2, 3, ... for one session.
	SequentialIDs = jsonrpc.Sequential

	// ULIDIDs yields unique string ids.
	ULIDIDs = jsonrpc.ULID
)

// ===== MCP =====

// Implementation names a client or server in initialize.
type Implementation = sdkmcp.Implementation

// InitializeResult is the server's answer to initialize.
type InitializeResult = sdkmcp.InitializeResult

// CallToolResult is the result of tools/call.
type CallToolResult = sdkmcp.CallToolResult

// ToolDescriptor is one entry of a tools/list result.
type ToolDescriptor = mcp.ToolDescriptor

// Well-known method names of the protocol sequence.
const (
	MethodInitialize  = mcp.MethodInitialize
	MethodInitialized = mcp.MethodInitialized
	MethodListTools   = mcp.MethodListTools
	MethodCallTool    = mcp.MethodCallTool
)

// ResultText joins the text content blocks of a tool result.
func ResultText(result *CallToolResult) string {
	return mcp.ResultText(result)
}

// DescribeContent renders one line per content block of a tool result.
func DescribeContent(result *CallToolResult) []string {
	return mcp.DescribeContent(result)
}

// ===== Comparison =====

// Step is one scripted message.
type Step = compare.Step

// Script is an ordered list of steps run on one session.
type Script = compare.Script

// StepResult is the outcome of one step on one session.
type StepResult = compare.StepResult

// Run is the outcome of a script on one launch.
type Run = compare.Run

// StepStatus is the outcome of one step.
type StepStatus = compare.Status

// Step statuses.
const (
	StatusOK          = compare.StatusOK
	StatusRemoteError = compare.StatusRemoteError
	StatusFailed      = compare.StatusFailed
	StatusSkipped     = compare.StatusSkipped
)

// Report is the outcome of a comparison.
type Report = compare.Report

// StepComparison compares one step across two runs.
type StepComparison = compare.StepComparison

// Verdict is the comparison outcome of one step.
type Verdict = compare.Verdict

// Verdicts.
const (
	VerdictEqual   = compare.VerdictEqual
	VerdictDiffer  = compare.VerdictDiffer
	VerdictMissing = compare.VerdictMissing
)
