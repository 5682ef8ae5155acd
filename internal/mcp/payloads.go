package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Method names of the fixed protocol sequence.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodListTools   = "tools/list"
	MethodCallTool    = "tools/call"
	MethodPing        = "ping"
)

const (
	// DefaultProtocolVersion is the protocol revision declared in initialize.
	DefaultProtocolVersion = "2024-11-05"

	// DefaultClientName and DefaultClientVersion identify the harness when
	// no client info is configured.
	DefaultClientName    = "mcpharness"
	DefaultClientVersion = "0.1.0"
)

// DefaultClientInfo returns the harness's own identity.
func DefaultClientInfo() *mcp.Implementation {
	return &mcp.Implementation{Name: DefaultClientName, Version: DefaultClientVersion}
}

// InitializeParams declares the protocol version, empty client capabilities
// and the client identity. A nil client means DefaultClientInfo.
func InitializeParams(protocolVersion string, client *mcp.Implementation) *mcp.InitializeParams {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}

	if client == nil {
		client = DefaultClientInfo()
	}

	return &mcp.InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    &mcp.ClientCapabilities{},
		ClientInfo:      client,
	}
}

// CallToolParams forwards args verbatim. Empty args become an empty object.
func CallToolParams(name string, args json.RawMessage) *mcp.CallToolParamsRaw {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	return &mcp.CallToolParamsRaw{
		Name:      name,
		Arguments: args,
	}
}

// ParseInitializeResult decodes an initialize result.
func ParseInitializeResult(raw json.RawMessage) (*mcp.InitializeResult, error) {
	var result mcp.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode initialize result: %w", err)
	}

	return &result, nil
}

// ToolDescriptor is a read-only view of one entry of a tools/list result.
type ToolDescriptor struct {
	Name        string
	Description string
	// InputSchema is nil when the child omitted it or sent one that does not
	// decode as a JSON Schema.
	InputSchema *jsonschema.Schema
	// Raw is the entry exactly as the child sent it.
	Raw json.RawMessage
}

// ParseTools decodes the tools of a tools/list result in the order given.
func ParseTools(raw json.RawMessage) ([]ToolDescriptor, error) {
	var list struct {
		Tools []json.RawMessage `json:"tools"`
	}

	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode tools/list result: %w", err)
	}

	tools := make([]ToolDescriptor, 0, len(list.Tools))

	for i, entry := range list.Tools {
		var fields struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		}

		if err := json.Unmarshal(entry, &fields); err != nil {
			return nil, fmt.Errorf("decode tool %d: %w", i, err)
		}

		if fields.Name == "" {
			return nil, fmt.Errorf("decode tool %d: missing name", i)
		}

		tool := ToolDescriptor{
			Name:        fields.Name,
			Description: fields.Description,
			Raw:         entry,
		}

		if len(fields.InputSchema) > 0 {
			var schema jsonschema.Schema
			if err := json.Unmarshal(fields.InputSchema, &schema); err == nil {
				tool.InputSchema = &schema
			}
		}

		tools = append(tools, tool)
	}

	return tools, nil
}

// ParseCallToolResult decodes a tools/call result.
func ParseCallToolResult(raw json.RawMessage) (*mcp.CallToolResult, error) {
	var result mcp.CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode tools/call result: %w", err)
	}

	return &result, nil
}
