package mcp

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StringArgs returns an object schema requiring each named string argument.
func StringArgs(names ...string) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(names)),
		Required:   slices.Sorted(slices.Values(names)),
	}

	for _, name := range names {
		schema.Properties[name] = &jsonschema.Schema{Type: "string"}
	}

	return schema
}

// NewTool creates an mcp.Tool. A nil schema becomes an empty object schema,
// which the SDK server requires.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	if inputSchema == nil {
		inputSchema = &jsonschema.Schema{Type: "object"}
	}

	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// ToolText answers a tools/call with a single text block. A failed result
// reports a tool-level error rather than a JSON-RPC one.
func ToolText(text string, failed bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: failed,
	}
}

// DecodeArguments unmarshals the arguments of a tools/call request into v.
// Absent arguments leave v untouched.
func DecodeArguments(req *mcp.CallToolRequest, v any) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}

	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("decode %s arguments: %w", req.Params.Name, err)
	}

	return nil
}
