package compare

import (
	"encoding/json"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-harness-go/internal/config"
	"github.com/wagiedev/mcp-harness-go/internal/mcp"
)

// Step is one scripted message.
type Step struct {
	// Name labels the step in reports. Empty means the method.
	Name string

	Method string
	Params json.RawMessage

	// Notification sends the step without an id and expects no response.
	Notification bool

	// Timeout overrides the launch timeout for this step.
	Timeout time.Duration
}

// Label returns Name, or the method when no name is set.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}

	return s.Method
}

// Script is an ordered list of steps run on one session.
type Script []Step

// DefaultScript builds the fixed sequence: initialize,
// notifications/initialized, tools/list, then one tools/call per call.
func DefaultScript(protocolVersion string, client *sdkmcp.Implementation, calls ...config.Call) Script {
	// Marshaling SDK payload types cannot fail.
	initParams, _ := json.Marshal(mcp.InitializeParams(protocolVersion, client))

	script := Script{
		{Method: mcp.MethodInitialize, Params: initParams},
		{Method: mcp.MethodInitialized, Notification: true},
		{Method: mcp.MethodListTools, Params: json.RawMessage("{}")},
	}

	for _, call := range calls {
		params, _ := json.Marshal(mcp.CallToolParams(call.Name, call.Arguments))

		script = append(script, Step{
			Name:   mcp.MethodCallTool + " " + call.Name,
			Method: mcp.MethodCallTool,
			Params: params,
		})
	}

	return script
}

// FromFile returns the file's explicit steps, or the default sequence with
// its calls when it has none.
func FromFile(file *config.File, client *sdkmcp.Implementation) Script {
	if len(file.Steps) == 0 {
		return DefaultScript(file.ProtocolVersion, client, file.Calls...)
	}

	script := make(Script, 0, len(file.Steps))

	for _, s := range file.Steps {
		script = append(script, Step{
			Name:         s.Name,
			Method:       s.Method,
			Params:       s.Params,
			Notification: s.Notification,
			Timeout:      s.Timeout,
		})
	}

	return script
}
