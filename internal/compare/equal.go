package compare

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pmezard/go-difflib/difflib"
)

// decodeJSON decodes data keeping numbers as their literal text.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	return v, nil
}

// Equal reports whether a and b are the same JSON value. Key order and
// whitespace are ignored. Invalid JSON is compared byte for byte.
func Equal(a, b json.RawMessage) bool {
	va, errA := decodeJSON(a)
	vb, errB := decodeJSON(b)

	if errA != nil || errB != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}

	return reflect.DeepEqual(va, vb)
}

// Indent renders a JSON value with sorted keys and two-space indentation.
// Invalid JSON is returned unchanged.
func Indent(data json.RawMessage) string {
	v, err := decodeJSON(data)
	if err != nil {
		return string(data)
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(data)
	}

	return string(out)
}

// Diff returns a unified diff of the indented payloads.
func Diff(a, b json.RawMessage, fromLabel, toLabel string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(Indent(a) + "\n"),
		B:        difflib.SplitLines(Indent(b) + "\n"),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff failed: %v", err)
	}

	return diff
}
