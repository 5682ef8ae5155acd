package mcp

import (
	"encoding/json"
	"testing"

	mcpgo "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestInitializeParams(t *testing.T) {
	params := InitializeParams("", &mcpgo.Implementation{Name: "mcpharness", Version: "0.1.0"})

	data, err := json.Marshal(params)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Equal(t, DefaultProtocolVersion, decoded["protocolVersion"])
	require.IsType(t, map[string]any{}, decoded["capabilities"])

	clientInfo, ok := decoded["clientInfo"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "mcpharness", clientInfo["name"])
	require.Equal(t, "0.1.0", clientInfo["version"])
}

func TestCallToolParams_ForwardsArgumentsVerbatim(t *testing.T) {
	params := CallToolParams("system_status", json.RawMessage(`{"z":1,"a":[true,null]}`))

	data, err := json.Marshal(params)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"system_status","arguments":{"z":1,"a":[true,null]}}`, string(data))

	empty := CallToolParams("system_status", nil)
	require.JSONEq(t, `{}`, string(empty.Arguments))
}

func TestParseInitializeResult(t *testing.T) {
	raw := json.RawMessage(`{
		"protocolVersion": "2024-11-05",
		"capabilities": {"tools": {"listChanged": true}},
		"serverInfo": {"name": "helpmetest", "version": "1.4.2"}
	}`)

	result, err := ParseInitializeResult(raw)
	require.NoError(t, err)
	require.Equal(t, "2024-11-05", result.ProtocolVersion)
	require.NotNil(t, result.ServerInfo)
	require.Equal(t, "helpmetest", result.ServerInfo.Name)
	require.Equal(t, "1.4.2", result.ServerInfo.Version)
	require.NotNil(t, result.Capabilities)
	require.NotNil(t, result.Capabilities.Tools)

	_, err = ParseInitializeResult(json.RawMessage(`[1,2]`))
	require.Error(t, err)
}

func TestParseTools(t *testing.T) {
	raw := json.RawMessage(`{"tools": [
		{"name": "system_status", "description": "Report status", "inputSchema": {"type": "object"}},
		{"name": "run_test", "inputSchema": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}},
		{"name": "loose", "inputSchema": 42}
	]}`)

	tools, err := ParseTools(raw)
	require.NoError(t, err)
	require.Len(t, tools, 3)

	require.Equal(t, "system_status", tools[0].Name)
	require.Equal(t, "Report status", tools[0].Description)
	require.NotNil(t, tools[0].InputSchema)
	require.Equal(t, "object", tools[0].InputSchema.Type)

	require.Equal(t, "run_test", tools[1].Name)
	require.Contains(t, tools[1].InputSchema.Properties, "id")
	require.Equal(t, []string{"id"}, tools[1].InputSchema.Required)

	require.Equal(t, "loose", tools[2].Name)
	require.Nil(t, tools[2].InputSchema, "undecodable schema is dropped, not fatal")
	require.JSONEq(t, `{"name": "loose", "inputSchema": 42}`, string(tools[2].Raw))
}

func TestParseTools_Errors(t *testing.T) {
	_, err := ParseTools(json.RawMessage(`{"tools": "nope"}`))
	require.Error(t, err)

	_, err = ParseTools(json.RawMessage(`{"tools": [{"description": "anonymous"}]}`))
	require.ErrorContains(t, err, "missing name")

	tools, err := ParseTools(json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Empty(t, tools)
}

func TestParseCallToolResult(t *testing.T) {
	raw := json.RawMessage(`{"content": [
		{"type": "text", "text": "all systems go"},
		{"type": "text", "text": "3 tests queued"}
	]}`)

	result, err := ParseCallToolResult(raw)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, "all systems go\n3 tests queued", ResultText(result))
	require.Equal(t, []string{"text: all systems go", "text: 3 tests queued"}, DescribeContent(result))
}

func TestParseCallToolResult_IsError(t *testing.T) {
	result, err := ParseCallToolResult(json.RawMessage(`{"content": [{"type": "text", "text": "token expired"}], "isError": true}`))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, []string{"text: token expired", "(tool reported an error)"}, DescribeContent(result))
}

func TestResultText_Nil(t *testing.T) {
	require.Empty(t, ResultText(nil))
	require.Nil(t, DescribeContent(nil))
}

func TestDescribeContent_Binary(t *testing.T) {
	result := &mcpgo.CallToolResult{
		Content: []mcpgo.Content{
			&mcpgo.ImageContent{Data: []byte{1, 2, 3}, MIMEType: "image/png"},
			&mcpgo.ResourceLink{URI: "file:///tmp/report.html", Name: "report"},
		},
	}

	require.Equal(t, []string{
		"image: image/png (3 bytes)",
		"resource_link: file:///tmp/report.html (report)",
	}, DescribeContent(result))
}

func TestStringArgs(t *testing.T) {
	schema := StringArgs("text", "id")

	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"id", "text"}, schema.Required)
	require.Equal(t, "string", schema.Properties["text"].Type)
	require.Equal(t, "string", schema.Properties["id"].Type)
}

func TestNewTool_DefaultsSchema(t *testing.T) {
	tool := NewTool("system_status", "Report status", nil)

	require.Equal(t, "system_status", tool.Name)
	require.NotNil(t, tool.InputSchema)
}

func TestToolText(t *testing.T) {
	result := ToolText("all good", false)
	require.False(t, result.IsError)
	require.Equal(t, "all good", ResultText(result))

	require.True(t, ToolText("boom", true).IsError)
}

func TestDecodeArguments(t *testing.T) {
	var args struct {
		Text string `json:"text"`
	}

	err := DecodeArguments(&mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)},
	}, &args)
	require.NoError(t, err)
	require.Equal(t, "hi", args.Text)

	require.NoError(t, DecodeArguments(nil, &args))

	err = DecodeArguments(&mcpgo.CallToolRequest{
		Params: &mcpgo.CallToolParamsRaw{Name: "echo", Arguments: json.RawMessage(`[1]`)},
	}, &args)
	require.ErrorContains(t, err, "decode echo arguments")
}
