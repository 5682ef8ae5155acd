// Package jsonrpc implements the JSON-RPC 2.0 wire model used on the
// child's standard streams: one JSON document per line.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/wagiedev/mcp-harness-go/internal/errors"
)

// Version is the protocol version tag carried by every message.
const Version = "2.0"

// Standard error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ID is a request identifier: either an integer or a string.
// The zero value is the absent id of a notification.
type ID struct {
	value any // int64 or string
}

// IntID returns a numeric identifier.
func IntID(n int64) ID { return ID{value: n} }

// StringID returns a string identifier.
func StringID(s string) ID { return ID{value: s} }

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool { return id.value == nil }

// Raw returns the underlying int64 or string, or nil.
func (id ID) Raw() any { return id.value }

func (id ID) String() string {
	switch v := id.value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return strconv.Quote(v)
	default:
		return "<none>"
	}
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler. Fractional numbers are rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		id.value = nil

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		id.value = s

		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be an integer or string, got %s", data)
	}

	id.value = n

	return nil
}

// Request is a JSON-RPC request, or a notification when ID is zero.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return r.ID == nil || r.ID.IsZero()
}

// Error is the error object of a failed response.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Response mirrors the request id and carries either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// RemoteError converts the response error object, if any, into a RemoteError.
func (r *Response) RemoteError(method string) error {
	if r.Error == nil {
		return nil
	}

	return &errors.RemoteError{
		Method:  method,
		Code:    r.Error.Code,
		Message: r.Error.Message,
		Data:    r.Error.Data,
	}
}

// NewRequest builds a request; params may be nil, a json.RawMessage or any
// value that marshals to JSON.
func NewRequest(id ID, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	req := &Request{JSONRPC: Version, Method: method, Params: raw}
	if !id.IsZero() {
		req.ID = &id
	}

	return req, nil
}

// NewNotification builds a request without an id.
func NewNotification(method string, params any) (*Request, error) {
	return NewRequest(ID{}, method, params)
}

func marshalParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	return raw, nil
}

// MarshalResult encodes the result of a response. A nil value becomes an
// empty object so the response still carries a result.
func MarshalResult(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("{}"), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return raw, nil
}

// EncodeLine serializes a message as one line terminated by '\n'.
func EncodeLine(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	return append(data, '\n'), nil
}

// Message is one decoded line. Exactly one of Request or Response is set.
type Message struct {
	Request  *Request
	Response *Response
}

// wireMessage is the union of every field a line may carry.
type wireMessage struct {
	JSONRPC *string         `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// DecodeLine parses one line from the child. Lines that are not JSON objects
// or that lack the required JSON-RPC fields yield a ProtocolError.
func DecodeLine(line []byte) (*Message, error) {
	raw := string(line)

	var w wireMessage
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, &errors.ProtocolError{Reason: "invalid JSON", Raw: raw, Err: err}
	}

	if w.JSONRPC == nil {
		return nil, &errors.ProtocolError{Reason: `missing "jsonrpc" field`, Raw: raw}
	}

	if *w.JSONRPC != Version {
		return nil, &errors.ProtocolError{Reason: fmt.Sprintf("unsupported jsonrpc version %q", *w.JSONRPC), Raw: raw}
	}

	var id ID

	if w.ID != nil {
		if err := id.UnmarshalJSON(w.ID); err != nil {
			return nil, &errors.ProtocolError{Reason: "invalid id", Raw: raw, Err: err}
		}
	}

	if w.Method != nil {
		if w.Result != nil || w.Error != nil {
			return nil, &errors.ProtocolError{Reason: "message has both method and result/error", Raw: raw}
		}

		req := &Request{JSONRPC: Version, Method: *w.Method, Params: w.Params}
		if !id.IsZero() {
			req.ID = &id
		}

		return &Message{Request: req}, nil
	}

	return decodeResponse(w, id, raw)
}

func decodeResponse(w wireMessage, id ID, raw string) (*Message, error) {
	hasResult := w.Result != nil
	hasError := w.Error != nil && !bytes.Equal(bytes.TrimSpace(w.Error), []byte("null"))

	switch {
	case hasResult && hasError:
		return nil, &errors.ProtocolError{Reason: "response has both result and error", Raw: raw}
	case !hasResult && !hasError:
		return nil, &errors.ProtocolError{Reason: "response has neither result nor error", Raw: raw}
	case w.ID == nil:
		return nil, &errors.ProtocolError{Reason: `missing "id" field`, Raw: raw}
	case id.IsZero() && !hasError:
		// A null id is only legal on error responses to unparseable requests.
		return nil, &errors.ProtocolError{Reason: "null id on success response", Raw: raw}
	}

	resp := &Response{JSONRPC: Version, ID: id}

	if hasResult {
		resp.Result = w.Result
	}

	if hasError {
		var rpcErr Error
		if err := json.Unmarshal(w.Error, &rpcErr); err != nil {
			return nil, &errors.ProtocolError{Reason: "malformed error object", Raw: raw, Err: err}
		}

		resp.Error = &rpcErr
	}

	return &Message{Response: resp}, nil
}
