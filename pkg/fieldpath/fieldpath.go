// Package fieldpath reads values out of loosely-typed records by dot-separated path.
package fieldpath

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Resolve walks record along the dot-separated path and returns the value it
// finds there. The second return is false when any segment is missing or the
// walk hits a non-map value before the path is exhausted.
func Resolve(record map[string]any, path string) (any, bool) {
	if record == nil || path == "" {
		return nil, false
	}

	var current any = record

	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		value, exists := node[segment]
		if !exists {
			return nil, false
		}

		current = value
	}

	return current, true
}

// Stringify renders a resolved value the way templates expect it: numbers
// without a trailing ".0", maps and slices as JSON, nil as the empty string.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}

// Number coerces a value to float64. JSON-decoded records carry numbers as
// float64, but literals configured by hand may be ints or numeric strings.
func Number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)

		return f, err == nil
	default:
		return 0, false
	}
}
