package fakeserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-harness-go/internal/jsonrpc"
	harnessmcp "github.com/wagiedev/mcp-harness-go/internal/mcp"
)

// EnvMode selects the mode of a re-executed test binary.
const EnvMode = "MCPHARNESS_FAKE_SERVER"

// EnvStatus overrides the text returned by the system_status tool.
const EnvStatus = "MCPHARNESS_FAKE_STATUS"

// SlowDelay is how long ModeSlow holds each response.
const SlowDelay = 400 * time.Millisecond

// Mode is one fake server behaviour.
type Mode string

const (
	// ModeMCP serves tools system_status and echo over the MCP SDK.
	ModeMCP Mode = "mcp"
	// ModeSilent reads stdin and never writes to stdout.
	ModeSilent Mode = "silent"
	// ModeGarbage answers every line with text that is not JSON.
	ModeGarbage Mode = "garbage"
	// ModeExit writes to stderr and exits with status 2 immediately.
	ModeExit Mode = "exit"
	// ModeWrongID answers every request with id 9999.
	ModeWrongID Mode = "wrong-id"
	// ModeChatty sends a notification and two server requests before each
	// response, and reports the replies it received in the result.
	ModeChatty Mode = "chatty"
	// ModeStubborn ignores stdin EOF and SIGTERM.
	ModeStubborn Mode = "stubborn"
	// ModeSlow answers every request with an empty result after SlowDelay.
	ModeSlow Mode = "slow"
)

// DefaultStatus is the system_status text unless EnvStatus is set.
const DefaultStatus = "all systems operational"

// MaybeRun runs the fake server and exits when EnvMode is set. It returns
// immediately otherwise.
func MaybeRun() {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		return
	}

	code := 0

	if err := Run(context.Background(), Mode(mode)); err != nil {
		fmt.Fprintln(os.Stderr, "fakeserver:", err)

		code = 1
	}

	os.Exit(code)
}

// Launch returns the command line that starts the current binary in mode.
func Launch(mode Mode) (executable string, args []string, env map[string]string) {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return exe, nil, map[string]string{EnvMode: string(mode)}
}

// Run serves mode on the process's standard streams until stdin closes.
func Run(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeMCP:
		return serveMCP(ctx)
	case ModeSilent:
		_, err := io.Copy(io.Discard, os.Stdin)

		return err
	case ModeGarbage:
		return eachLine(os.Stdin, func(_ *jsonrpc.Message) error {
			_, err := fmt.Fprintln(os.Stdout, "this is not json {")

			return err
		})
	case ModeExit:
		fmt.Fprintln(os.Stderr, "fatal: cannot open database")
		os.Exit(2)

		return nil
	case ModeWrongID:
		return eachLine(os.Stdin, func(msg *jsonrpc.Message) error {
			if msg.Request == nil || msg.Request.IsNotification() {
				return nil
			}

			return writeLine(os.Stdout, &jsonrpc.Response{
				JSONRPC: jsonrpc.Version,
				ID:      jsonrpc.IntID(9999),
				Result:  json.RawMessage(`{}`),
			})
		})
	case ModeChatty:
		return serveChatty(os.Stdin, os.Stdout)
	case ModeSlow:
		return eachLine(os.Stdin, func(msg *jsonrpc.Message) error {
			if msg.Request == nil || msg.Request.IsNotification() {
				return nil
			}

			time.Sleep(SlowDelay)

			return writeLine(os.Stdout, &jsonrpc.Response{
				JSONRPC: jsonrpc.Version,
				ID:      *msg.Request.ID,
				Result:  json.RawMessage(`{}`),
			})
		})
	case ModeStubborn:
		signal.Ignore(syscall.SIGTERM)
		fmt.Fprintln(os.Stderr, "stubborn: ignoring SIGTERM")

		for {
			time.Sleep(time.Hour)
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func serveMCP(ctx context.Context) error {
	fmt.Fprintln(os.Stderr, "fakeserver: starting MCP server on stdio")

	status := os.Getenv(EnvStatus)
	if status == "" {
		status = DefaultStatus
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "fakeserver", Version: "1.0.0"}, nil)

	server.AddTool(
		harnessmcp.NewTool("system_status", "Report the status of the service", nil),
		func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return harnessmcp.ToolText(status, false), nil
		},
	)

	server.AddTool(
		harnessmcp.NewTool("echo", "Echo the text argument", harnessmcp.StringArgs("text")),
		func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				Text *string `json:"text"`
			}

			if err := harnessmcp.DecodeArguments(req, &args); err != nil {
				return harnessmcp.ToolText(err.Error(), true), nil
			}

			if args.Text == nil {
				return harnessmcp.ToolText("text must be a string", true), nil
			}

			return harnessmcp.ToolText(*args.Text, false), nil
		},
	)

	return server.Run(ctx, &mcp.StdioTransport{})
}

// serveChatty exercises server-initiated traffic. For each client request it
// sends a log notification, a ping and an unsupported request, reads the two
// replies, then answers with a result embedding them.
func serveChatty(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	next := func() (*jsonrpc.Message, error) {
		for scanner.Scan() {
			msg, err := jsonrpc.DecodeLine(scanner.Bytes())
			if err != nil {
				return nil, err
			}

			if msg.Request != nil && msg.Request.IsNotification() {
				continue
			}

			return msg, nil
		}

		if err := scanner.Err(); err != nil {
			return nil, err
		}

		return nil, io.EOF
	}

	for {
		msg, err := next()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		if msg.Request == nil {
			continue
		}

		notification, err := jsonrpc.NewNotification("notifications/message", map[string]any{"level": "info", "data": "working"})
		if err != nil {
			return err
		}

		ping, err := jsonrpc.NewRequest(jsonrpc.StringID("srv-ping"), harnessmcp.MethodPing, nil)
		if err != nil {
			return err
		}

		sampling, err := jsonrpc.NewRequest(jsonrpc.StringID("srv-sampling"), "sampling/createMessage", map[string]any{})
		if err != nil {
			return err
		}

		for _, m := range []any{notification, ping, sampling} {
			if err := writeLine(out, m); err != nil {
				return err
			}
		}

		replies := make(map[string]*jsonrpc.Response, 2)

		for len(replies) < 2 {
			reply, err := next()
			if err != nil {
				return err
			}

			if reply.Response != nil {
				replies[reply.Response.ID.String()] = reply.Response
			}
		}

		result, err := json.Marshal(map[string]any{
			"method":   msg.Request.Method,
			"ping":     replies[`"srv-ping"`],
			"sampling": replies[`"srv-sampling"`],
		})
		if err != nil {
			return err
		}

		if err := writeLine(out, &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      *msg.Request.ID,
			Result:  result,
		}); err != nil {
			return err
		}
	}
}

func eachLine(in io.Reader, fn func(*jsonrpc.Message) error) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		msg, err := jsonrpc.DecodeLine(scanner.Bytes())
		if err != nil {
			return err
		}

		if err := fn(msg); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func writeLine(out io.Writer, msg any) error {
	data, err := jsonrpc.EncodeLine(msg)
	if err != nil {
		return err
	}

	_, err = out.Write(data)

	return err
}
