package session

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-harness-go/internal/errors"
	"github.com/wagiedev/mcp-harness-go/internal/mcp"
)

// Initialize performs the handshake: initialize, then
// notifications/initialized.
func (s *Session) Initialize(ctx context.Context) (*sdkmcp.InitializeResult, error) {
	params := mcp.InitializeParams(s.cfg.ProtocolVersion, s.cfg.ClientInfo)

	resp, err := s.Call(ctx, mcp.MethodInitialize, params, 0)
	if err != nil {
		return nil, err
	}

	result, err := mcp.ParseInitializeResult(resp.Result)
	if err != nil {
		return nil, &errors.ProtocolError{Reason: "malformed initialize result", Raw: string(resp.Result), Err: err}
	}

	if err := s.SendNotification(ctx, mcp.MethodInitialized, nil); err != nil {
		return nil, fmt.Errorf("send initialized notification: %w", err)
	}

	server := "<unknown>"
	if result.ServerInfo != nil {
		server = result.ServerInfo.Name + " " + result.ServerInfo.Version
	}

	s.log.Info("Session initialized", "server", server, "protocol_version", result.ProtocolVersion)

	return result, nil
}

// ListTools enumerates the child's tools.
func (s *Session) ListTools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	resp, err := s.Call(ctx, mcp.MethodListTools, json.RawMessage("{}"), 0)
	if err != nil {
		return nil, err
	}

	tools, err := mcp.ParseTools(resp.Result)
	if err != nil {
		return nil, &errors.ProtocolError{Reason: "malformed tools/list result", Raw: string(resp.Result), Err: err}
	}

	s.log.Debug("Listed tools", "count", len(tools))

	return tools, nil
}

// CallTool invokes a tool with args forwarded verbatim. Calling a tool the
// child does not know yields RemoteError.
func (s *Session) CallTool(ctx context.Context, name string, args json.RawMessage) (*sdkmcp.CallToolResult, error) {
	resp, err := s.Call(ctx, mcp.MethodCallTool, mcp.CallToolParams(name, args), 0)
	if err != nil {
		return nil, err
	}

	result, err := mcp.ParseCallToolResult(resp.Result)
	if err != nil {
		return nil, &errors.ProtocolError{Reason: "malformed tools/call result", Raw: string(resp.Result), Err: err}
	}

	return result, nil
}
