package mcp

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultText joins the text content blocks of a tool result with newlines.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	var parts []string

	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}

	return strings.Join(parts, "\n")
}

// DescribeContent renders one line per content block for display.
// Binary payloads are summarised by type and size.
func DescribeContent(result *mcp.CallToolResult) []string {
	if result == nil {
		return nil
	}

	lines := make([]string, 0, len(result.Content))

	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			lines = append(lines, "text: "+v.Text)
		case *mcp.ImageContent:
			lines = append(lines, fmt.Sprintf("image: %s (%d bytes)", v.MIMEType, len(v.Data)))
		case *mcp.AudioContent:
			lines = append(lines, fmt.Sprintf("audio: %s (%d bytes)", v.MIMEType, len(v.Data)))
		case *mcp.ResourceLink:
			lines = append(lines, fmt.Sprintf("resource_link: %s (%s)", v.URI, v.Name))
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				lines = append(lines, fmt.Sprintf("resource: %s", v.Resource.URI))
			}
		default:
			lines = append(lines, fmt.Sprintf("%T", c))
		}
	}

	if result.IsError {
		lines = append(lines, "(tool reported an error)")
	}

	return lines
}
