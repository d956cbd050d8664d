package review

import (
	"encoding/json"
	"fmt"
	"math"
)

// Check validates the structural shape of a decoded response.
//
// The required-keys rule is lenient: it fails only when both the cursor and
// the items keys are absent.
func Check(p Payload) error {
	m, ok := p.(map[string]any)
	if !ok {
		return TypeMismatch(fmt.Sprintf("response is %s, want object", jsonType(p)))
	}
	_, hasCursor := m[KeyCursor]
	items, hasItems := m[KeyItems]
	if !hasCursor && !hasItems {
		return ErrMissingAPIKeys
	}
	if hasItems {
		if _, ok := items.([]any); !ok {
			return TypeMismatch(fmt.Sprintf("%q is %s, want array", KeyItems, jsonType(items)))
		}
	}
	return nil
}

// ParseResponse converts a payload that passed Check into a Response.
// A missing items key is treated as an empty list. Item entries are decoded
// lazily by Response.Latest.
func ParseResponse(p Payload) (Response, error) {
	if err := Check(p); err != nil {
		return Response{}, err
	}
	m := p.(map[string]any)

	var out Response
	if raw, ok := m[KeyCursor]; ok && raw != nil {
		c, err := toCursor(raw)
		if err != nil {
			return Response{}, err
		}
		out.Cursor = c
		out.HasCursor = true
	}

	out.items, _ = m[KeyItems].([]any)
	return out, nil
}

func toCursor(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, TypeMismatch(fmt.Sprintf("%q is not a number", KeyCursor))
		}
		return int64(math.Trunc(f)), nil
	case float64:
		return int64(math.Trunc(n)), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, TypeMismatch(fmt.Sprintf("%q is %s, want integer", KeyCursor, jsonType(v)))
	}
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
